package llm

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 64 << 10

// UpstreamError is returned when the completion API answers with anything
// other than 200.  Body is the raw response body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// statusTransport intercepts non-200 responses before the openai client
// decodes them, since that decoding drops the body.  http.Client wraps the
// returned error in a *url.Error, which errors.As sees through.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("read upstream error body: %w", err)
	}
	return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
}
