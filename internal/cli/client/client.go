package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	Token   string

	HTTP *http.Client
}

// Envelope is the server's response shape.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    map[string]any  `json:"meta,omitempty"`
}

// APIError is a non-2xx answer. Envelope still carries the decision body so
// a refused prepare can show the operator what was recorded.
type APIError struct {
	Status   int
	Envelope Envelope
}

func (e *APIError) Error() string {
	var d struct {
		Reason       string `json:"reason"`
		ReasonDetail string `json:"reason_detail"`
		Error        string `json:"error"`
	}
	_ = json.Unmarshal(e.Envelope.Data, &d)
	switch {
	case d.ReasonDetail != "":
		return fmt.Sprintf("http %d: %s: %s", e.Status, d.Reason, d.ReasonDetail)
	case d.Error != "":
		return fmt.Sprintf("http %d: %s: %s", e.Status, d.Reason, d.Error)
	case e.Envelope.Message != "":
		return fmt.Sprintf("http %d: %s", e.Status, e.Envelope.Message)
	default:
		return fmt.Sprintf("http %d", e.Status)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) NewRequest(method, path string, body any) (*http.Request, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, errors.New("base url is empty")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	url := strings.TrimRight(c.BaseURL, "/") + path

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(c.Token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.Token))
	}
	return req, nil
}

// Do sends req and decodes the envelope. Non-2xx answers return *APIError.
func (c *Client) Do(req *http.Request) (*Envelope, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var env Envelope
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &env); err != nil {
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
			}
			return nil, err
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Envelope: env}
	}
	return &env, nil
}
