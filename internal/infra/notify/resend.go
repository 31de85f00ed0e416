package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domain "github.com/udhaya30012004/backend/internal/domain/contracts"
)

const resendURL = "https://api.resend.com/emails"

// Resend implements the Notifier port over the Resend REST API.
type Resend struct {
	apiKey string
	from   string
	http   *http.Client
}

func NewResend(apiKey, from string) *Resend {
	if from == "" {
		from = "Contract Analysis <onboarding@resend.dev>"
	}
	return &Resend{apiKey: apiKey, from: from, http: &http.Client{}}
}

func (n *Resend) AnalysisComplete(ctx context.Context, email string, id domain.AnalysisID, contractType string) error {
	body, err := json.Marshal(map[string]any{
		"from":    n.from,
		"to":      email,
		"subject": "Your contract analysis is ready",
		"html": fmt.Sprintf("<p>Your %s analysis (%s) has finished. Log in to view the results.</p>",
			contractType, id),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
