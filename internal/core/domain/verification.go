package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// VerificationStatus is a custom type for our ENUM
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// IsTerminal reports whether the status can no longer change.
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationVerified || s == VerificationFailed
}

// Valid reports whether s is one of the known statuses.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationFailed:
		return true
	}
	return false
}

// ParseVerificationStatus converts a wire value into a VerificationStatus.
func ParseVerificationStatus(raw string) (VerificationStatus, error) {
	s := VerificationStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown verification status %q", raw)
	}
	return s, nil
}

// AssociationID is the opaque identifier of a registered association.
// The status API issues UUID strings, but older registrations used numeric ids,
// so it decodes from either a JSON string or a JSON number.
type AssociationID string

func (id *AssociationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errors.New("association id is empty")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AssociationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("association id must be a string or a number: %w", err)
	}
	*id = AssociationID(n.String())
	return nil
}

func (id AssociationID) String() string { return string(id) }

// AssociationIDFromInt is a helper for numeric ids.
func AssociationIDFromInt(n int64) AssociationID {
	return AssociationID(strconv.FormatInt(n, 10))
}

// VerificationRecord mirrors the server-side verification outcome of one registration.
type VerificationRecord struct {
	ID         AssociationID
	Status     VerificationStatus
	Notes      *string    // Only meaningful for failed
	ResolvedAt *time.Time // Only set once Status is terminal
}

// NotesOrEmpty returns the notes text, or "" when none were given.
func (r *VerificationRecord) NotesOrEmpty() string {
	if r == nil || r.Notes == nil {
		return ""
	}
	return *r.Notes
}

// dateLayouts are the accepted forms of verification_date on the wire.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseVerificationDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseVerificationDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised verification date %q", raw)
}
