// Package customHttpClient holds the connection pool shared by every outbound
// provider client (completion backends and embedders).
package customHttpClient

import (
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/doctutor/internal/config"
)

var (
	sharedClient *http.Client
	once         sync.Once
)

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = config.MaxIdleConns
	t.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
	t.IdleConnTimeout = config.IdleConnTimeout
	return t
}

// NewHTTPClient returns a client over a fresh pooled transport.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.ProviderHTTPTimeout
	}
	return &http.Client{Transport: newTransport(), Timeout: timeout}
}

// Shared returns the process wide provider client.
func Shared() *http.Client {
	once.Do(func() {
		sharedClient = NewHTTPClient(config.ProviderHTTPTimeout)
	})
	return sharedClient
}
