package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/gym_studio/configs"
	"github.com/avast/retry-go"
)

const brevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoClient sends transactional email through the Brevo HTTP API.
type BrevoClient struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	URL         string
	Attempts    uint
	Delay       time.Duration
	HTTP        *http.Client
	log         *slog.Logger
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// permanentError is a rejection that retrying will not fix.
type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// NewBrevoClient returns nil when the email settings are incomplete.
func NewBrevoClient(cfg config.Email, log *slog.Logger) *BrevoClient {
	if cfg.BrevoAPIKey == "" || cfg.SenderEmail == "" || cfg.SenderName == "" {
		log.Warn("⚠️ Email service not configured. Missing API Key, Sender Email, or Sender Name.")
		return nil
	}
	log.Info("✅ Email service initialized successfully.")
	return &BrevoClient{
		APIKey:      cfg.BrevoAPIKey,
		SenderEmail: cfg.SenderEmail,
		SenderName:  cfg.SenderName,
		URL:         brevoURL,
		Attempts:    cfg.Attempts,
		Delay:       cfg.Delay,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Send delivers one email, retrying transport failures and 5xx/429
// responses.
func (s *BrevoClient) Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:strings.Index(toEmail, "@")]
	}

	body, err := json.Marshal(brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	attempts := s.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			return s.post(ctx, body)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(s.Delay),
		retry.MaxDelay(10*s.Delay+time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var perm permanentError
			return !errors.As(err, &perm)
		}),
		retry.OnRetry(func(n uint, err error) {
			if s.log != nil {
				s.log.Warn("retrying email", slog.Uint64("attempt", uint64(n+1)), slog.String("to", toEmail), slog.Any("error", err))
			}
		}),
	)
}

func (s *BrevoClient) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return permanentError{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("brevo status %d: %s", resp.StatusCode, respBody)
	default:
		return permanentError{fmt.Errorf("brevo rejected email with status %d: %s", resp.StatusCode, respBody)}
	}
}
