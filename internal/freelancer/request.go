package freelancer

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	formContentType = "application/x-www-form-urlencoded"
	contentEncoding = "gzip"
	authHeader      = "freelancer-oauth-v1"

	statusSuccess = "success"
)

// envelope is the wrapper every Freelancer API response is sent in.
type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Result    json.RawMessage `json:"result"`
}

// APIError is returned when the API answers with a non 2xx code or an error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("freelancer api: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("freelancer api: %d: %s", e.StatusCode, msg)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, "", target)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, q url.Values, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	return c.do(ctx, method, path, q, bytes.NewReader(body), contentType, target)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, bodyType string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, body)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if bodyType != "" {
		req.Header.Set("Content-Type", bodyType)
	} else {
		req.Header.Set("Content-Type", contentType)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.decode(resp, target)
}

func (c *Client) decode(resp *http.Response, target any) error {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	var env envelope
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &env); err != nil && resp.StatusCode < http.StatusMultipleChoices {
			return fmt.Errorf("decode response envelope: %w", err)
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices || (env.Status != "" && env.Status != statusSuccess) {
		return &APIError{StatusCode: resp.StatusCode, Code: env.ErrorCode, Message: env.Message}
	}

	if target == nil || len(env.Result) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Result, target); err != nil {
		return fmt.Errorf("decode response result: %w", err)
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set(authHeader, c.token)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
