package depositor

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

var ErrNotJSON = errors.New("response is not JSON")

// Payload is the deposit body. Exactly one of TelegramID or UserID is set.
type Payload struct {
	TelegramID *int64 `json:"telegram_id,omitempty"`
	UserID     *int64 `json:"user_id,omitempty"`
	Amount     int64  `json:"amount"`
	TxMUSD     string `json:"tx_musd"`
}

func NewPayload(cfg Config, tag string) Payload {
	id := cfg.ID
	p := Payload{Amount: cfg.Amount, TxMUSD: tag}
	if cfg.UseUserID {
		p.UserID = &id
	} else {
		p.TelegramID = &id
	}
	return p
}

// Response is a parsed deposit response.
type Response struct {
	Status string
	Body   string // compact JSON
}

type Poster interface {
	Post(p Payload) (*Response, error)
}

type Client struct {
	hc      *fasthttp.Client
	url     string
	timeout time.Duration
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		hc: &fasthttp.Client{
			Name:                "mstc-loadtest",
			MaxIdleConnDuration: time.Minute,
		},
		url:     url,
		timeout: timeout,
	}
}

func (c *Client) Post(p Payload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(body)

	if err := c.hc.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	parsed, err := ParseResponse(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("HTTP %d: %w", resp.StatusCode(), err)
	}
	return parsed, nil
}

// ParseResponse compacts body and reads its "ok" field. A JSON object without
// "ok" yields status "unknown"; anything that is not JSON is an error.
func ParseResponse(body []byte) (*Response, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrNotJSON, truncate(body, 200))
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	status := StatusUnknown
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &fields); err == nil {
		if raw, ok := fields["ok"]; ok {
			status = statusOf(raw)
		}
	}
	return &Response{Status: status, Body: buf.String()}, nil
}

func statusOf(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(raw)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
