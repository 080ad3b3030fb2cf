package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// IPNLog represents a structured IPN log entry
type IPNLog struct {
	Timestamp   time.Time         `json:"timestamp"`
	RequestID   string            `json:"request_id"`
	Level       string            `json:"level"`
	OrderID     int64             `json:"order_id,omitempty"`
	OrderNumber string            `json:"order_number,omitempty"`
	Message     string            `json:"message"`
	Error       string            `json:"error,omitempty"`
	ClientIP    string            `json:"client_ip,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogIPN indexes an IPN log entry
func (l *Logger) LogIPN(ctx context.Context, entry IPNLog) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}

	logJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: l.client.IPNIndexName(),
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}
