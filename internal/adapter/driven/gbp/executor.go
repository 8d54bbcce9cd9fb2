package gbp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brandops/brandpanel/internal/domain/model"
)

// maxResponseBytes bounds how much of a response body is read. Vendor
// payloads for the wired operations are far smaller.
const maxResponseBytes = 8 << 20

// apiRequest describes one logical operation invocation before endpoint
// selection.
type apiRequest struct {
	op     operation
	params map[string]string // placeholder substitutions for candidate paths
	query  url.Values        // per-call query, merged over the candidate's static query
	body   any               // JSON-encoded when non-nil
}

// apiResult is the payload of the first successful candidate, tagged with the
// generation that produced it so the normalizer can pick the right mapping.
type apiResult struct {
	gen  generation
	body []byte
}

// execute walks the operation's candidates strictly in order, one attempt
// each, and returns the first success. Terminal classifications fall through
// to the next candidate; an expired-auth classification propagates
// immediately so the caller can refresh and replay; when all candidates fail
// the error of the last attempt is surfaced, since the last attempt is
// presumed most specific to the configured API surface. Candidates are never
// tried concurrently: each attempt spends one quota unit against the vendor.
func (c *Client) execute(ctx context.Context, req apiRequest) (*apiResult, error) {
	cands := catalog[req.op]
	if len(cands) == 0 {
		return nil, &model.ClientError{
			Kind:      model.KindInvalidRequest,
			Operation: string(req.op),
			Message:   "no endpoint candidates registered",
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i, cand := range cands {
		start := time.Now()
		body, status, attemptErr := c.attempt(ctx, token, cand, req)

		kind := model.KindTransient
		if attemptErr == nil {
			kind = classify(status)
		}
		if c.recorder != nil {
			c.recorder.RecordVendorRequest(string(req.op), string(cand.gen), string(kind), time.Since(start))
		}

		switch kind {
		case model.KindSuccess:
			return &apiResult{gen: cand.gen, body: body}, nil

		case model.KindAuthExpired:
			// Never advance candidates on an auth failure: the next host would
			// fail identically, and the caller can refresh and replay instead.
			return nil, &model.ClientError{
				Kind:      kind,
				Operation: string(req.op),
				Status:    status,
				Message:   vendorMessage(body),
			}

		case model.KindNotFound, model.KindPermissionDenied, model.KindInvalidRequest:
			lastErr = &model.ClientError{
				Kind:      kind,
				Operation: string(req.op),
				Status:    status,
				Message:   vendorMessage(body),
			}
			if i < len(cands)-1 {
				slog.Debug("endpoint candidate failed, falling back",
					"operation", req.op,
					"generation", cand.gen,
					"status", status,
					"next", cands[i+1].gen,
				)
				if c.recorder != nil {
					c.recorder.RecordFallback(string(req.op))
				}
				continue
			}
			return nil, lastErr

		default:
			// Transient or rate-limited: surface without burning further quota;
			// the caller decides whether to retry with backoff.
			return nil, &model.ClientError{
				Kind:      kind,
				Operation: string(req.op),
				Status:    status,
				Message:   vendorMessage(body),
				Err:       attemptErr,
			}
		}
	}

	return nil, lastErr
}

// attempt builds and issues a single HTTP request for one candidate. A
// network-level failure is reported through the error return; otherwise the
// response body and status are handed back for classification.
func (c *Client) attempt(ctx context.Context, token string, cand candidate, req apiRequest) ([]byte, int, error) {
	u, err := c.buildURL(cand, req)
	if err != nil {
		return nil, 0, err
	}

	var bodyReader io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding %s request body: %w", req.op, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, cand.method, u, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating %s request: %w", req.op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("%s via %s: %w", req.op, cand.gen, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s response: %w", req.op, err)
	}

	slog.Debug("vendor api call",
		"operation", req.op,
		"generation", cand.gen,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return body, resp.StatusCode, nil
}

// buildURL resolves a candidate template against the request: host by
// generation, placeholder substitution in the path, and the candidate's
// static query merged with the per-call values.
func (c *Client) buildURL(cand candidate, req apiRequest) (string, error) {
	host, ok := c.hosts[cand.gen]
	if !ok {
		return "", fmt.Errorf("no host configured for generation %q", cand.gen)
	}

	path := cand.path
	for key, val := range req.params {
		path = strings.ReplaceAll(path, "{"+key+"}", val)
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("unresolved placeholder in %s path %q", req.op, path)
	}

	query := url.Values{}
	for k, vs := range cand.query {
		query[k] = vs
	}
	for k, vs := range req.query {
		query[k] = vs
	}

	u := host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}
