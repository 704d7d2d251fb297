package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

// maxErrorBody bounds how much of a rejection body ends up in logs.
const maxErrorBody = 512

// SenderConfig identifies the endpoint and the agent.
type SenderConfig struct {
	// EndpointURL receives one POST per payload
	EndpointURL string

	// AuthKey is sent as a bearer token when not empty
	AuthKey string

	// Hostname is reported in X-Agent-Hostname
	Hostname string
}

// PayloadSender implements ports.PayloadSender using a JSON POST.
type PayloadSender struct {
	client ports.HTTPClient
	cfg    SenderConfig
}

// NewPayloadSender creates a new HTTP payload sender.
func NewPayloadSender(client ports.HTTPClient, cfg SenderConfig) *PayloadSender {
	return &PayloadSender{
		client: client,
		cfg:    cfg,
	}
}

// Send posts the payload once. Only 200 and 201 count as accepted.
func (s *PayloadSender) Send(ctx context.Context, payload domain.Payload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, &domain.DeliveryError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return 0, &domain.DeliveryError{Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	if s.cfg.Hostname != "" {
		req.Header.Set("X-Agent-Hostname", s.cfg.Hostname)
	}
	if s.cfg.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AuthKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, &domain.DeliveryError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &domain.DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

var _ ports.PayloadSender = (*PayloadSender)(nil)
