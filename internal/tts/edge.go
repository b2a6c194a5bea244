package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ClientOptions configures the speech service client. ForceIPv4 restricts
// this client's dialer to IPv4; some runner environments advertise IPv6
// routes that do not actually work. The restriction is scoped to this client
// and never touches the process-wide transport.
type ClientOptions struct {
	Endpoint  string
	Timeout   time.Duration
	ForceIPv4 bool
}

// Client talks to the speech-synthesis HTTP service.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ForceIPv4 {
		dialer := &net.Dialer{Timeout: 30 * time.Second}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp4", addr)
		}
	}

	return &Client{
		endpoint: opts.Endpoint,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Synthesize submits text for rendering with the given voice and returns the
// audio byte stream. The caller owns closing the stream.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to speech service: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("speech service returned %d: %s", resp.StatusCode, string(snippet))
	}

	return resp.Body, nil
}
