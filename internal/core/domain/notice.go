package domain

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the payload carried on the event bus for user notifications.
type Notice struct {
	AssociationID AssociationID
	Kind          NoticeKind
	Message       string
}
