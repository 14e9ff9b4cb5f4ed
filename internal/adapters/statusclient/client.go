// Package statusclient talks to the association status API over HTTP.
package statusclient

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// ErrTransport marks any failure to obtain a usable answer from the status API.
var ErrTransport = errors.New("status api transport failure")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status api returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// Options configures the Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client implements ports.StatusQueryClient and ports.RegistrationSubmitter.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
}

var (
	_ ports.StatusQueryClient     = (*Client)(nil)
	_ ports.RegistrationSubmitter = (*Client)(nil)
)

// New creates a status API client.
func New(o Options, baseLogger *zerolog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid status api base url %q", o.BaseURL)
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http:    hc,
		baseURL: base,
		log:     baseLogger.With().Str("component", "status_client").Logger(),
	}, nil
}

// statusResponse is the wire shape shared by both endpoints.
type statusResponse struct {
	ID                 *domain.AssociationID `json:"id,omitempty"`
	VerificationStatus string                `json:"verification_status"`
	VerificationNotes  *string               `json:"verification_notes,omitempty"`
	VerificationDate   *string               `json:"verification_date,omitempty"`
}

// Query performs GET /verification/{id}.
func (c *Client) Query(ctx context.Context, id domain.AssociationID) (*domain.VerificationRecord, error) {
	path := "/verification/" + url.PathEscape(id.String())
	var body statusResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	rec, err := body.toRecord(id)
	if err != nil {
		c.log.Warn().Err(err).Str("association_id", id.String()).Msg("Malformed status response")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return rec, nil
}

// Submit performs POST /associations and returns the initial verification record.
func (c *Client) Submit(ctx context.Context, req domain.RegistrationRequest) (*domain.VerificationRecord, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not encode registration: %w", err)
	}
	var body statusResponse
	if err := c.do(ctx, http.MethodPost, "/associations", payload, &body); err != nil {
		return nil, err
	}
	if body.ID == nil || *body.ID == "" {
		return nil, fmt.Errorf("%w: registration response has no id", ErrTransport)
	}
	rec, err := body.toRecord(*body.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.log.Info().Str("association_id", rec.ID.String()).Str("status", string(rec.Status)).Msg("Registration submitted")
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("Status api request failed")
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Status api response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(tail))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: could not decode response: %v", ErrTransport, err)
	}
	return nil
}

func (r statusResponse) toRecord(id domain.AssociationID) (*domain.VerificationRecord, error) {
	status, err := domain.ParseVerificationStatus(r.VerificationStatus)
	if err != nil {
		return nil, err
	}
	rec := &domain.VerificationRecord{ID: id, Status: status}
	if r.VerificationNotes != nil && *r.VerificationNotes != "" {
		notes := *r.VerificationNotes
		rec.Notes = &notes
	}
	// A date on a pending record means nothing, ignore it.
	if status.IsTerminal() && r.VerificationDate != nil && *r.VerificationDate != "" {
		at, err := domain.ParseVerificationDate(*r.VerificationDate)
		if err != nil {
			return nil, err
		}
		rec.ResolvedAt = &at
	}
	return rec, nil
}
