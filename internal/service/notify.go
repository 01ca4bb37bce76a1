package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/ghostline/internal/config"
)

// ErrNotifierDisabled is returned when email delivery is not configured.
var ErrNotifierDisabled = errors.New("email notifier is not configured")

// EmailNotifier sends mail through a Resend-style REST API.
type EmailNotifier struct {
	client   *resty.Client
	endpoint string
	from     string
	to       string
	enabled  bool
}

// NewEmailNotifier creates the notifier. Without an API key every send is
// rejected with ErrNotifierDisabled and Notify is a no-op.
func NewEmailNotifier(cfg *config.NotifyConfig) *EmailNotifier {
	if cfg == nil || !cfg.Enabled() {
		return &EmailNotifier{enabled: false}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	return &EmailNotifier{
		client:   client,
		endpoint: strings.TrimSuffix(cfg.APIURL, "/") + "/emails",
		from:     cfg.From,
		to:       cfg.To,
		enabled:  true,
	}
}

func (n *EmailNotifier) IsEnabled() bool {
	return n.enabled
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Notify mails the operator address. It does nothing when disabled or when no
// operator address is set.
func (n *EmailNotifier) Notify(ctx context.Context, subject, html string) error {
	if !n.enabled || n.to == "" {
		return nil
	}
	_, err := n.SendEmail(ctx, []string{n.to}, subject, html)
	return err
}

// SendEmail delivers one message and returns the provider's message id.
func (n *EmailNotifier) SendEmail(ctx context.Context, to []string, subject, html string) (string, error) {
	if !n.enabled {
		return "", ErrNotifierDisabled
	}
	if len(to) == 0 {
		return "", errors.New("no recipients")
	}

	var result emailResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(emailRequest{From: n.from, To: to, Subject: subject, HTML: html}).
		SetResult(&result).
		SetError(&result).
		Post(n.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call email API: %w", err)
	}
	if resp.IsError() {
		msg := result.Message
		if msg == "" {
			msg = strings.TrimSpace(string(resp.Body()))
		}
		return "", fmt.Errorf("email API returned HTTP %d: %s", resp.StatusCode(), msg)
	}
	return result.ID, nil
}
