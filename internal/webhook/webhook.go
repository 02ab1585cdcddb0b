// Package webhook fires outbound JSON events to a configured URL.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Dispatcher posts event payloads to a single configured URL.
type Dispatcher struct {
	url    string
	client *http.Client
}

// New creates a Dispatcher. An empty url disables delivery entirely.
func New(url string) *Dispatcher {
	return &Dispatcher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a delivery URL is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.url != ""
}

// Payload is the JSON body sent to the webhook URL.
type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Fire sends an event asynchronously. Delivery is best-effort: 3 attempts,
// backing off 500ms then 1s between them.
func (d *Dispatcher) Fire(event string, data interface{}) {
	if !d.Enabled() {
		return
	}
	body, err := json.Marshal(Payload{Event: event, Timestamp: time.Now(), Data: data})
	if err != nil {
		log.Printf("webhook.Fire: marshal: %v", err)
		return
	}
	go d.fire(event, body)
}

func (d *Dispatcher) fire(event string, body []byte) {
	backoff := []time.Duration{500 * time.Millisecond, time.Second}
	for attempt := 0; attempt <= len(backoff); attempt++ {
		if attempt > 0 {
			time.Sleep(backoff[attempt-1])
		}
		status, err := d.post(body)
		if err == nil && status < 400 {
			return
		}
		log.Printf("webhook.fire: %s attempt %d: status=%d err=%v", event, attempt+1, status, err)
	}
}

func (d *Dispatcher) post(body []byte) (int, error) {
	resp, err := d.client.Post(d.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("webhook.post: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
