// Package whatsapp sends alert texts through the Meta WhatsApp Cloud API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/farmerp/internal/config"
)

// MaxBodyLength is the longest text body the Cloud API accepts.
const MaxBodyLength = 4096

// Messenger delivers text messages and returns the ids Meta assigned to them.
type Messenger interface {
	SendText(ctx context.Context, to, body string) ([]string, error)
}

// APIClient is the resty-backed Messenger.
type APIClient struct {
	http          *resty.Client
	phoneNumberID string
}

// NewClient builds an API client. Throttled or failing calls are retried twice.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	baseURL, _ := url.JoinPath(cfg.BaseURL, cfg.APIVersion)
	rc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{http: rc, phoneNumberID: cfg.PhoneNumberID}
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type sendResult struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// APIError is an error answer from the Cloud API.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d code=%d message=%s", e.Status, e.Code, e.Message)
}

// SendText delivers body to one recipient. Bodies over MaxBodyLength are sent
// as several messages split on line breaks, in order; the first failure stops
// the sequence.
func (c *APIClient) SendText(ctx context.Context, to, body string) ([]string, error) {
	if to == "" || strings.TrimSpace(body) == "" {
		return nil, errors.New("whatsapp: recipient and body are required")
	}

	var ids []string
	for _, part := range Split(body, MaxBodyLength) {
		id, err := c.send(ctx, to, part)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *APIClient) send(ctx context.Context, to, body string) (string, error) {
	var result sendResult
	var failure struct {
		Error APIError `json:"error"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(textPayload{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body},
		}).
		SetResult(&result).
		SetError(&failure).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return "", fmt.Errorf("whatsapp: send message: %w", err)
	}
	if resp.IsError() {
		apiErr := failure.Error
		apiErr.Status = resp.StatusCode()
		return "", &apiErr
	}
	if len(result.Messages) == 0 {
		return "", nil
	}
	return result.Messages[0].ID, nil
}

// Split cuts text into chunks of at most limit bytes, preferring line breaks.
// A single line longer than limit is cut hard.
func Split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			parts = append(parts, line[:limit])
			line = line[limit:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
	}
	flush()

	for i := range parts {
		parts[i] = strings.TrimSuffix(parts[i], "\n")
	}
	return parts
}
