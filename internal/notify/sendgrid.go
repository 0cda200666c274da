package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/logger"
)

// SendGridConfig configures the SendGrid v3 client.
type SendGridConfig struct {
	APIKey     string
	BaseURL    string
	From       Address
	Timeout    time.Duration
	MaxRetries int
}

// SendGrid sends email through the SendGrid v3 mail send API.
type SendGrid struct {
	cfg        SendGridConfig
	httpClient *http.Client
	log        *logger.Logger
}

// NewSendGrid creates a SendGrid client.
func NewSendGrid(cfg SendGridConfig, log *logger.Logger) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid: missing api key")
	}
	if strings.TrimSpace(cfg.From.Email) == "" {
		return nil, errors.New("sendgrid: missing from email")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SendGrid{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With("client", "SendGridClient"),
	}, nil
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

type personalization struct {
	To []Address `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HTTPError is a non-2xx response from SendGrid.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (s *SendGrid) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To.Email) == "" {
		return errors.New("sendgrid: recipient required")
	}
	if strings.TrimSpace(e.Subject) == "" {
		return errors.New("sendgrid: subject required")
	}
	var content []mailContent
	if t := strings.TrimSpace(e.Text); t != "" {
		content = append(content, mailContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(e.HTML); h != "" {
		content = append(content, mailContent{Type: "text/html", Value: h})
	}
	if len(content) == 0 {
		return errors.New("sendgrid: text or html content required")
	}

	body, err := json.Marshal(mailSendRequest{
		Personalizations: []personalization{{To: []Address{e.To}}},
		From:             s.cfg.From,
		Subject:          e.Subject,
		Content:          content,
	})
	if err != nil {
		return fmt.Errorf("sendgrid: encode request: %w", err)
	}

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := s.post(ctx, body)
		if err == nil {
			return nil
		}
		var he *HTTPError
		if !errors.As(err, &he) || !he.retryable() || attempt >= s.cfg.MaxRetries {
			return err
		}
		s.log.Warn("sendgrid request retrying", "attempt", attempt+1, "max_retries", s.cfg.MaxRetries, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *SendGrid) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	he := &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 && er.Errors[0].Message != "" {
		he.Message = er.Errors[0].Message
	}
	return he
}
