package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/adapter"
	"github.com/babyregistry/registry/internal/logger"
)

const (
	// DefaultSendGridURL is the SendGrid v3 mail send endpoint
	DefaultSendGridURL = "https://api.sendgrid.com/v3/mail/send"

	// DefaultFromAddress is the verified sender used when none is configured
	DefaultFromAddress = "service@daphne-hsin-baby-registry.me"
)

// SendGridConfig holds configuration for the SendGrid sender
type SendGridConfig struct {
	APIKey      string
	URL         string
	FromAddress string
}

type sendGridSender struct {
	config SendGridConfig
	http   adapter.HTTPClient
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// NewSendGridSender creates a sender posting to the SendGrid mail send API
func NewSendGridSender(config SendGridConfig, httpClient adapter.HTTPClient) (Sender, error) {
	if config.APIKey == "" {
		return nil, errors.New("SendGrid API key is required")
	}
	if config.URL == "" {
		config.URL = DefaultSendGridURL
	}
	if config.FromAddress == "" {
		config.FromAddress = DefaultFromAddress
	}
	return &sendGridSender{
		config: config,
		http:   httpClient,
	}, nil
}

// Send posts the message to SendGrid. Plain text comes first as the API requires.
func (s *sendGridSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("email recipient is required")
	}

	req := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: s.config.FromAddress},
		Subject:          msg.Subject,
	}
	if msg.Text != "" {
		req.Content = append(req.Content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		req.Content = append(req.Content, sendGridContent{Type: "text/html", Value: msg.HTML})
	}
	if len(req.Content) == 0 {
		return errors.New("email body is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.config.APIKey)
	header.Set("Content-Type", "application/json")

	if _, err := s.http.Do(ctx, http.MethodPost, s.config.URL, header, body); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.DebugCtx(ctx, "Email sent", zap.String("subject", msg.Subject))
	return nil
}
