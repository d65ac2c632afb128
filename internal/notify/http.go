package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// HTTPSink posts events to an external notification gateway (the service
// that fans out to email/SMS, outside this engine).
type HTTPSink struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSink) Emit(ctx context.Context, e Event) error {
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 5 * time.Second}
	}

	b, _ := json.Marshal(e)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/notify", bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("notification gateway returned " + resp.Status)
	}
	return nil
}
