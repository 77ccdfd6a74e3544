package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Upper bounds on upstream response bodies. Audit logs grow with every
// operation, so they get far more room than a single document.
const (
	maxDocumentSize = 1 << 20
	maxAuditLogSize = 16 << 20
)

// Upstream names used for metrics and error sources
const (
	UpstreamPLCDocument = "plc.document"
	UpstreamPLCAudit    = "plc.audit"
	UpstreamWebDocument = "web.document"
	UpstreamHandle      = "handle"
)

// jsonGetter issues uncached JSON GETs and reports their timing
type jsonGetter struct {
	client   *http.Client
	observer Observer
}

// get fetches url, validates the body against schema and decodes it into out.
// Bodies over maxBytes fail with ErrResponseTooLarge instead of being cut.
func (g *jsonGetter) get(ctx context.Context, upstream, url string, maxBytes int64, schema *gojsonschema.Schema, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		g.observer.ObserveUpstream(upstream, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("[IDENTITY] Failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ErrUpstreamStatus{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, url, maxBytes)
	}

	if err := validateShape(schema, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
