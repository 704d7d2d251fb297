package ports

import "net/http"

// HTTPClient is what the payload sender posts through.
// *http.Client satisfies it; tests substitute their own round trip.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
