package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Call describes one outbound request against the backend.
type Call struct {
	Method  string
	Path    string
	Body    any
	Header  http.Header
	NoStore bool
}

// Response is what came back from the backend, body already decoded.
type Response struct {
	StatusCode int
	Payload    any
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode/100 == 2
}

type Client struct {
	resolver *Resolver
	http     *http.Client
}

func NewClient(resolver *Resolver, timeout time.Duration) *Client {
	return &Client{
		resolver: resolver,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Do issues exactly one request. A *ConfigurationError is returned before any network
// activity when the base URL cannot be resolved; network and read failures come back
// as *TransportError. Non-2xx statuses are not errors here.
func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	base, err := c.resolver.BackendURL()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if call.Body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(call.Body); err != nil {
			return nil, &TransportError{Err: err}
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, base+call.Path, body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	for key, values := range call.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if call.NoStore {
		req.Header.Set("Cache-Control", "no-store")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := ReadPayload(resp)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return &Response{StatusCode: resp.StatusCode, Payload: payload}, nil
}
