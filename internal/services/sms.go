package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
)

// SMSNotifier delivers a task notification to a volunteer's phone.
// Delivery is best-effort; callers log and continue on failure.
type SMSNotifier interface {
	SendTaskNotification(ctx context.Context, firstName, phoneNumber string, task *models.Task) error
}

// TextbeltNotifier sends SMS through a textbelt-style HTTP API.
type TextbeltNotifier struct {
	url    string
	apiKey string
	client *http.Client
}

func NewTextbeltNotifier(url, apiKey string) *TextbeltNotifier {
	return &TextbeltNotifier{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type textbeltRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Key     string `json:"key"`
}

func (n *TextbeltNotifier) SendTaskNotification(ctx context.Context, firstName, phoneNumber string, task *models.Task) error {
	body, err := json.Marshal(textbeltRequest{
		Phone: formatPhoneNumber(phoneNumber),
		Message: fmt.Sprintf(
			"Hello, %s need your help with %s at %s. Please accept the task on dashboard if you are available to help.",
			firstName, task.Skill, task.FullAddress),
		Key: n.apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}

// formatPhoneNumber strips the hyphens from a ddd-ddd-dddd number.
func formatPhoneNumber(number string) string {
	return strings.ReplaceAll(number, "-", "")
}
