package mailer

import (
	"context"
	"fmt"
	"os"
	"time"

	"resty.dev/v3"
)

// Mailer sends a single transactional email. Implementations must treat
// the call as best-effort; callers never retry.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type resendMailer struct {
	client *resty.Client
	from   string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type sendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewResendMailer builds a Mailer that talks to the Resend HTTP API.
// RESEND_API_KEY configures the key; baseURL is overridable for tests.
func NewResendMailer(from, baseURL string) Mailer {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetAuthToken(os.Getenv("RESEND_API_KEY"))

	return &resendMailer{
		client: client,
		from:   from,
	}
}

func (m *resendMailer) Send(ctx context.Context, to, subject, html string) error {
	var result sendResponse
	var apiErr sendError

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(sendRequest{
			From:    m.from,
			To:      []string{to},
			Subject: subject,
			HTML:    html,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("email api request failed: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("email api returned %d: %s", resp.StatusCode(), apiErr.Message)
	}

	return nil
}
