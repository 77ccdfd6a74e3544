package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"Internect/internal/api/handlers"
	"Internect/internal/atproto/identity"
	"Internect/internal/core/lookup"
	"Internect/internal/core/profiles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLookupService implements lookup.Service for testing
type mockLookupService struct {
	resolveFunc func(ctx context.Context, raw string) (*lookup.ResolvedIdentity, error)
	calls       []string
}

func (m *mockLookupService) Resolve(ctx context.Context, raw string) (*lookup.ResolvedIdentity, error) {
	m.calls = append(m.calls, raw)
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, raw)
	}
	return nil, errors.New("not configured")
}

func resolvedAlice() *lookup.ResolvedIdentity {
	return &lookup.ResolvedIdentity{
		DID:         "did:plc:abc123",
		Method:      identity.MethodPLC,
		Handle:      "alice.example.com",
		Document:    &identity.DIDDocument{ID: "did:plc:abc123"},
		DocumentURL: "https://web.plc.directory/did/did:plc:abc123",
		AuditLog:    []identity.AuditRecord{},
		HasHistory:  true,
		Profile:     profiles.NotFound(),
	}
}

func failWith(kind lookup.ErrorKind, did string, cause error) func(context.Context, string) (*lookup.ResolvedIdentity, error) {
	return func(_ context.Context, raw string) (*lookup.ResolvedIdentity, error) {
		return nil, &lookup.PipelineError{Kind: kind, Input: raw, DID: did, Err: cause}
	}
}

func TestHandleResolve_Success(t *testing.T) {
	svc := &mockLookupService{
		resolveFunc: func(_ context.Context, raw string) (*lookup.ResolvedIdentity, error) {
			return resolvedAlice(), nil
		},
	}
	handler := NewResolveHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/xrpc/info.internect.lookup.resolve?q=%40alice.example.com", nil)
	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"@alice.example.com"}, svc.calls)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "did:plc:abc123", body["did"])
	assert.Equal(t, "plc", body["method"])
	assert.Equal(t, "alice.example.com", body["handle"])
	assert.Equal(t, true, body["hasHistory"])
	assert.Equal(t, "https://web.plc.directory/did/did:plc:abc123", body["documentUrl"])
}

func TestHandleResolve_Errors(t *testing.T) {
	tests := []struct {
		name        string
		resolve     func(context.Context, string) (*lookup.ResolvedIdentity, error)
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:        "invalid input carries classifier message",
			resolve:     failWith(lookup.KindInvalidInput, "", &lookup.ClassifyError{Input: "at://x/y/z", Reason: lookup.ReasonRecordURI}),
			wantStatus:  http.StatusBadRequest,
			wantError:   "InvalidInput",
			wantMessage: "Record URIs are not yet supported.",
		},
		{
			name:        "handle not found",
			resolve:     failWith(lookup.KindHandleNotFound, "", identity.ErrHandleNotFound),
			wantStatus:  http.StatusNotFound,
			wantError:   "HandleNotFound",
			wantMessage: "Handle not found. Are you sure it's correct?",
		},
		{
			name:        "unsupported method",
			resolve:     failWith(lookup.KindUnsupportedMethod, "did:key:z6Mk", identity.ErrUnsupportedMethod),
			wantStatus:  http.StatusBadRequest,
			wantError:   "UnsupportedMethod",
			wantMessage: "Only PLC & web DIDs are currently supported by this tool.",
		},
		{
			name:        "did not found hides upstream cause",
			resolve:     failWith(lookup.KindDIDNotFound, "did:plc:gone", errors.New("dial tcp: connection refused")),
			wantStatus:  http.StatusNotFound,
			wantError:   "DidNotFound",
			wantMessage: `Could not find "did:plc:gone"`,
		},
		{
			name: "unexpected error",
			resolve: func(context.Context, string) (*lookup.ResolvedIdentity, error) {
				return nil, errors.New("boom")
			},
			wantStatus:  http.StatusInternalServerError,
			wantError:   "InternalServerError",
			wantMessage: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewResolveHandler(&mockLookupService{resolveFunc: tt.resolve})

			req := httptest.NewRequest(http.MethodGet, "/xrpc/info.internect.lookup.resolve?q=whatever", nil)
			rec := httptest.NewRecorder()
			handler.HandleResolve(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestHandleResolve_RejectsOversizedQuery(t *testing.T) {
	svc := &mockLookupService{}
	handler := NewResolveHandler(svc)

	long := make([]byte, handlers.MaxQueryLength+1)
	for i := range long {
		long[i] = 'a'
	}
	req := httptest.NewRequest(http.MethodGet, "/xrpc/info.internect.lookup.resolve?q="+string(long), nil)
	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.calls)
}

func TestHandleResolve_MethodNotAllowed(t *testing.T) {
	handler := NewResolveHandler(&mockLookupService{})

	req := httptest.NewRequest(http.MethodPost, "/xrpc/info.internect.lookup.resolve?q=alice.example.com", nil)
	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRedirect(t *testing.T) {
	tests := []struct {
		name         string
		resolve      func(context.Context, string) (*lookup.ResolvedIdentity, error)
		wantLocation string
	}{
		{
			name: "success goes to identity page",
			resolve: func(context.Context, string) (*lookup.ResolvedIdentity, error) {
				return resolvedAlice(), nil
			},
			wantLocation: "/at/did:plc:abc123",
		},
		{
			name:         "handle not found goes back with message",
			resolve:      failWith(lookup.KindHandleNotFound, "", identity.ErrHandleNotFound),
			wantLocation: "/?error=" + url.QueryEscape("Handle not found. Are you sure it's correct?"),
		},
		{
			name:         "unsupported method goes back with message",
			resolve:      failWith(lookup.KindUnsupportedMethod, "did:key:z6Mk", identity.ErrUnsupportedMethod),
			wantLocation: "/?error=" + url.QueryEscape("Only PLC & web DIDs are currently supported by this tool."),
		},
		{
			name: "unknown failure uses generic message",
			resolve: func(context.Context, string) (*lookup.ResolvedIdentity, error) {
				return nil, errors.New("boom")
			},
			wantLocation: "/?error=" + url.QueryEscape("Something went wrong. Please try again."),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewResolveHandler(&mockLookupService{resolveFunc: tt.resolve})

			req := httptest.NewRequest(http.MethodGet, "/lookup?q=alice.example.com", nil)
			rec := httptest.NewRecorder()
			handler.HandleRedirect(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}
