package n8n

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// httpClientPool shares transports between per-request Clients. Clients
// carry no credentials, so sharing them across callers is safe.
type httpClientPool struct {
	mu      sync.Mutex
	clients map[time.Duration]*http.Client
}

var sharedHTTPClientPool = &httpClientPool{
	clients: map[time.Duration]*http.Client{},
}

func (p *httpClientPool) client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.clients[timeout]; ok {
		return existing
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	p.clients[timeout] = client
	return client
}
