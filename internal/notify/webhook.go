package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-sim/internal/storage"
)

// Webhook posts a summary of every stored run to an HTTP endpoint.
type Webhook struct {
	Endpoint string
	Token    string
	Client   *http.Client
}

func NewWebhook(endpoint, token string) *Webhook {
	return &Webhook{Endpoint: endpoint, Token: token, Client: &http.Client{Timeout: 3 * time.Second}}
}

type runCompleted struct {
	Event  string       `json:"event"`
	Run    *storage.Run `json:"run"`
	Cached bool         `json:"cached"`
}

func (w *Webhook) RunCompleted(ctx context.Context, run *storage.Run, cached bool) error {
	b, err := json.Marshal(runCompleted{Event: "run.completed", Run: run, Cached: cached})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.Token)
	}
	res, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: status %d", w.Endpoint, res.StatusCode)
	}
	return nil
}
