package airship

import (
	"net/http"

	"github.com/bft-labs/airship/internal/ports"
	"github.com/bft-labs/airship/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = log.Logger

// Source yields raw bytes. ReadChunk may return an empty chunk when nothing
// arrived. An error wrapping ErrSourceClosed ends the run cleanly; one wrapping
// ErrSourceUnavailable crashes it.
type Source = ports.StreamSource

// Option configures optional behavior of Airship.
type Option func(*options)

// options holds the optional configuration for an Airship instance.
type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	source       Source
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     log.NewNoopLogger(),
	}
}

// WithHTTPClient sets a custom HTTP client for delivery.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for forwarder events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithSource reads from src instead of the configured device or replay file.
// The run closes src when it ends, so src serves a single run: a later Start
// fails with ErrSourceUnavailable.
func WithSource(src Source) Option {
	return func(o *options) {
		o.source = src
	}
}
