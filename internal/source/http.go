package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"opactx/internal/value"
)

// maxBody caps the size of an http payload.
const maxBody = 64 << 20

// HTTP fetches a JSON document with GET.
type HTTP struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewHTTP builds an http source from "url", optional "headers" and
// optional "timeout_s".
func NewHTTP(_ string, with map[string]any) (Source, error) {
	url, err := requiredString(with, "url", TypeHTTP)
	if err != nil {
		return nil, err
	}

	wait, err := timeout(with, TypeHTTP)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}

	if raw, exists := with["headers"]; exists && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("http source requires 'headers' as a mapping")
		}

		for k, v := range m {
			headers[k] = fmt.Sprint(v)
		}
	}

	return &HTTP{url: url, headers: headers, client: &http.Client{Timeout: wait}}, nil
}

// Fetch implements Source.
func (h *HTTP) Fetch(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request for %s: %w", h.url, err)
	}

	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", h.url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", h.url, resp.Status)
	}

	doc, err := value.DecodeJSON(body)
	if err != nil {
		return nil, fmt.Errorf("response from %s is not valid JSON: %w", h.url, err)
	}

	return doc, nil
}
