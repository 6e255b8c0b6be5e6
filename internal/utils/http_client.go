package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
//
// Example usage:
//
//	client := utils.NewHTTPClient("https://matrix.example.org")
//	resp, err := client.R().Get("/_matrix/client/versions")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a client bound to baseURL that expects JSON
// responses. Each call returns an independent connection pool.
//
// No client-wide timeout is set: long-poll requests need a longer deadline
// than ordinary ones, so callers bound every request through its context.
func NewHTTPClient(baseURL string) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")

	return &HTTPClient{Client: client}
}

// CloseIdleConnections releases pooled connections of the underlying
// transport.
func (c *HTTPClient) CloseIdleConnections() {
	c.GetClient().CloseIdleConnections()
}
