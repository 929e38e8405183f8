package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/learning-platform/internal/progress"
)

// HTTPSink posts one progress event per record to the activity endpoint.
type HTTPSink struct {
	Endpoint   string
	HTTPClient *http.Client
}

func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) Deliver(ctx context.Context, credential string, rec progress.Record) error {
	body, err := json.Marshal(NewEvent(rec))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", "learning-platform-progress-agent/1.0")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("activity endpoint: status %d body=%q",
			resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	return nil
}
