package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

const maxRetries = 3

// HTTPTranscriber calls a speech-to-text service over HTTP. The request
// body is the raw concatenated audio buffer; the response is expected to
// be {"text": "..."}.
type HTTPTranscriber struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewHTTPTranscriber(url, apiKey string, timeout time.Duration) *HTTPTranscriber {
	return &HTTPTranscriber{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	err := postJSON(ctx, t.Client, t.URL, t.APIKey, "application/octet-stream", audio, &out)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

// HTTPSummarizer calls a summarization service over HTTP with
// {"transcript": "..."} and expects {"summary": "..."}.
type HTTPSummarizer struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewHTTPSummarizer(url, apiKey string, timeout time.Duration) *HTTPSummarizer {
	return &HTTPSummarizer{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	body, err := json.Marshal(map[string]string{"transcript": transcript})
	if err != nil {
		return "", err
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := postJSON(ctx, s.Client, s.URL, s.APIKey, "application/json", body, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// postJSON POSTs body and decodes a JSON response into out, retrying
// transport errors and 5xx responses with exponential backoff. Client
// errors (4xx) are not retried. All failures wrap ErrUnavailable.
func postJSON(ctx context.Context, client *http.Client, url, apiKey, contentType string, body []byte, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		if apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
