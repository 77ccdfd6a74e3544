package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"Internect/internal/atproto/identity"
	"Internect/internal/core/profiles"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockHandleResolver is a mock implementation of identity.HandleResolver
type MockHandleResolver struct {
	mock.Mock
}

func (m *MockHandleResolver) ResolveHandle(ctx context.Context, handle syntax.Handle) (syntax.DID, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(syntax.DID), args.Error(1)
}

// MockDocumentFetcher is a mock implementation of identity.DocumentFetcher
type MockDocumentFetcher struct {
	mock.Mock
}

func (m *MockDocumentFetcher) Fetch(ctx context.Context, did syntax.DID) (*identity.Resolution, error) {
	args := m.Called(ctx, did)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Resolution), args.Error(1)
}

// MockProfileFetcher is a mock implementation of profiles.Fetcher
type MockProfileFetcher struct {
	mock.Mock
}

func (m *MockProfileFetcher) Fetch(ctx context.Context, did syntax.DID) profiles.Outcome {
	args := m.Called(ctx, did)
	return args.Get(0).(profiles.Outcome)
}

const (
	alicePLC    = syntax.DID("did:plc:ewvi7nxzyoun6zhxrhs64oiz")
	aliceHandle = syntax.Handle("alice.test")
)

func plcResolution(did syntax.DID) *identity.Resolution {
	created := time.Date(2023, 4, 12, 4, 53, 57, 0, time.UTC)
	return &identity.Resolution{
		Document: &identity.DIDDocument{
			ID:          did.String(),
			AlsoKnownAs: []string{"at://declared.test"},
			Service: []identity.Service{
				{ID: "#atproto_pds", Type: identity.PDSServiceType, ServiceEndpoint: "https://morel.us-east.host.bsky.network"},
			},
		},
		AuditLog: []identity.AuditRecord{
			{DID: did.String(), CID: "bafyone", CreatedAt: created, Operation: &identity.UpdateOperation{AlsoKnownAs: []string{"at://alice.test"}}},
		},
		HasHistory: true,
	}
}

func newTestService() (*service, *MockHandleResolver, *MockDocumentFetcher, *MockProfileFetcher) {
	handles := new(MockHandleResolver)
	docs := new(MockDocumentFetcher)
	profs := new(MockProfileFetcher)
	svc := NewService(handles, docs, profs).(*service)
	return svc, handles, docs, profs
}

func TestResolve_HandleActiveProfile(t *testing.T) {
	svc, handles, docs, profs := newTestService()

	handles.On("ResolveHandle", mock.Anything, aliceHandle).Return(alicePLC, nil)
	docs.On("Fetch", mock.Anything, alicePLC).Return(plcResolution(alicePLC), nil)
	profs.On("Fetch", mock.Anything, alicePLC).Return(profiles.Active(profiles.Profile{
		DID:    alicePLC.String(),
		Handle: "alice.test",
	}))

	got, err := svc.Resolve(context.Background(), "@Alice.test")
	require.NoError(t, err)

	assert.Equal(t, alicePLC.String(), got.DID)
	assert.Equal(t, identity.MethodPLC, got.Method)
	assert.Equal(t, "alice.test", got.Handle)
	assert.True(t, got.HasHistory)
	require.Len(t, got.AuditLog, 1)
	require.NotNil(t, got.FirstSeen)
	assert.Equal(t, 2023, got.FirstSeen.Year())
	require.NotNil(t, got.PDS)
	assert.Equal(t, "Morel", got.PDS.Label)
	assert.Equal(t, profiles.StateActive, got.Profile.State)
	assert.Equal(t, "https://web.plc.directory/did/"+alicePLC.String(), got.DocumentURL)

	handles.AssertExpectations(t)
	docs.AssertExpectations(t)
	profs.AssertExpectations(t)
}

func TestResolve_DeactivatedProfileStillResolves(t *testing.T) {
	svc, _, docs, profs := newTestService()

	docs.On("Fetch", mock.Anything, alicePLC).Return(plcResolution(alicePLC), nil)
	profs.On("Fetch", mock.Anything, alicePLC).Return(profiles.Deactivated())

	got, err := svc.Resolve(context.Background(), alicePLC.String())
	require.NoError(t, err)
	assert.Equal(t, profiles.StateDeactivated, got.Profile.State)
	assert.Nil(t, got.Profile.Profile)
	assert.Equal(t, "declared.test", got.Handle)
	assert.NotNil(t, got.PDS)
}

func TestResolve_NotFoundProfileStillResolves(t *testing.T) {
	svc, _, docs, profs := newTestService()

	docs.On("Fetch", mock.Anything, alicePLC).Return(plcResolution(alicePLC), nil)
	profs.On("Fetch", mock.Anything, alicePLC).Return(profiles.NotFound())

	got, err := svc.Resolve(context.Background(), "https://bsky.app/profile/"+alicePLC.String())
	require.NoError(t, err)
	assert.Equal(t, profiles.StateNotFound, got.Profile.State)
}

func TestResolve_WebDIDHasNoHistory(t *testing.T) {
	svc, _, docs, profs := newTestService()
	did := syntax.DID("did:web:example.com")

	docs.On("Fetch", mock.Anything, did).Return(&identity.Resolution{
		Document: &identity.DIDDocument{ID: did.String()},
		AuditLog: []identity.AuditRecord{},
	}, nil)
	profs.On("Fetch", mock.Anything, did).Return(profiles.NotFound())

	got, err := svc.Resolve(context.Background(), did.String())
	require.NoError(t, err)
	assert.False(t, got.HasHistory)
	assert.Empty(t, got.AuditLog)
	assert.Nil(t, got.FirstSeen)
	assert.Nil(t, got.PDS)
	assert.Equal(t, "https://example.com/.well-known/did.json", got.DocumentURL)
}

func TestResolve_InvalidInput(t *testing.T) {
	svc, handles, docs, profs := newTestService()

	_, err := svc.Resolve(context.Background(), "at://alice.test/app.bsky.feed.post/abc")
	require.Error(t, err)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindInvalidInput, pe.Kind)
	assert.Equal(t, "Record URIs are not yet supported.", pe.Message())

	handles.AssertNotCalled(t, "ResolveHandle", mock.Anything, mock.Anything)
	docs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	profs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestResolve_HandleNotFound(t *testing.T) {
	svc, handles, docs, profs := newTestService()
	handles.On("ResolveHandle", mock.Anything, syntax.Handle("nobody.test")).Return(syntax.DID(""), identity.ErrHandleNotFound)

	_, err := svc.Resolve(context.Background(), "nobody.test")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindHandleNotFound))

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Handle not found. Are you sure it's correct?", pe.Message())

	docs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	profs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestResolve_UnsupportedMethodMakesNoCalls(t *testing.T) {
	svc, handles, docs, profs := newTestService()

	_, err := svc.Resolve(context.Background(), "did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupportedMethod))

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Only PLC & web DIDs are currently supported by this tool.", pe.Message())

	handles.AssertNotCalled(t, "ResolveHandle", mock.Anything, mock.Anything)
	docs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	profs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestResolve_DocumentNotFound(t *testing.T) {
	svc, _, docs, profs := newTestService()

	docs.On("Fetch", mock.Anything, alicePLC).Return(nil, &identity.ErrResolutionFailed{
		Identifier: alicePLC.String(),
		Source:     identity.UpstreamPLCAudit,
		Cause:      errors.New("unexpected status code 500"),
	})
	profs.On("Fetch", mock.Anything, alicePLC).Return(profiles.Active(profiles.Profile{Handle: "alice.test"}))

	_, err := svc.Resolve(context.Background(), alicePLC.String())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDIDNotFound))
	assert.True(t, errors.Is(err, identity.ErrDIDNotFound))

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, fmt.Sprintf("Could not find %q", alicePLC.String()), pe.Message())
	assert.NotContains(t, pe.Message(), "500")
}

// rendezvous blocks each fetch until both have started
type rendezvous struct {
	wg sync.WaitGroup
}

func (p *rendezvous) arrive(ctx context.Context) error {
	p.wg.Done()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Second):
		return errors.New("fetches were not concurrent")
	}
}

type rendezvousFetcher struct{ meet *rendezvous }

func (f rendezvousFetcher) Fetch(ctx context.Context, did syntax.DID) (*identity.Resolution, error) {
	if err := f.meet.arrive(ctx); err != nil {
		return nil, err
	}
	return plcResolution(did), nil
}

type rendezvousProfiles struct{ meet *rendezvous }

func (f rendezvousProfiles) Fetch(ctx context.Context, did syntax.DID) profiles.Outcome {
	if err := f.meet.arrive(ctx); err != nil {
		return profiles.NotFound()
	}
	return profiles.Active(profiles.Profile{DID: did.String(), Handle: "alice.test"})
}

func TestResolve_DocumentAndProfileRunConcurrently(t *testing.T) {
	meet := &rendezvous{}
	meet.wg.Add(2)

	svc := NewService(new(MockHandleResolver), rendezvousFetcher{meet}, rendezvousProfiles{meet})

	got, err := svc.Resolve(context.Background(), alicePLC.String())
	require.NoError(t, err)
	assert.Equal(t, profiles.StateActive, got.Profile.State)
}

func TestResolve_RepeatedLookupsRefetch(t *testing.T) {
	svc, _, docs, profs := newTestService()

	docs.On("Fetch", mock.Anything, alicePLC).Return(plcResolution(alicePLC), nil).Twice()
	profs.On("Fetch", mock.Anything, alicePLC).Return(profiles.NotFound()).Twice()

	first, err := svc.Resolve(context.Background(), alicePLC.String())
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), alicePLC.String())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	docs.AssertNumberOfCalls(t, "Fetch", 2)
	profs.AssertNumberOfCalls(t, "Fetch", 2)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveResolution(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestResolve_ReportsOutcome(t *testing.T) {
	obs := &recordingObserver{}
	svc := NewService(new(MockHandleResolver), new(MockDocumentFetcher), new(MockProfileFetcher), WithObserver(obs))

	_, err := svc.Resolve(context.Background(), "")
	require.Error(t, err)
	_, err = svc.Resolve(context.Background(), "did:key:zabc")
	require.Error(t, err)

	assert.Equal(t, []string{"InvalidInput", "UnsupportedMethod"}, obs.outcomes)
}

func TestNewService_PanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewService(nil, new(MockDocumentFetcher), new(MockProfileFetcher)) })
	assert.Panics(t, func() { NewService(new(MockHandleResolver), nil, new(MockProfileFetcher)) })
	assert.Panics(t, func() { NewService(new(MockHandleResolver), new(MockDocumentFetcher), nil) })
}

func TestResolve_ProfileURLMatchesDirectInput(t *testing.T) {
	tests := []struct {
		name    string
		direct  string
		profile string
	}{
		{"did", alicePLC.String(), "https://bsky.app/profile/" + alicePLC.String()},
		{"encoded did", alicePLC.String(), "https://bsky.app/profile/did%3Aplc%3Aewvi7nxzyoun6zhxrhs64oiz/"},
		{"handle", "alice.test", "https://bsky.app/profile/alice.test"},
		{"handle with query", "@Alice.test", "https://bsky.app/profile/alice.test?ref=share"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, handles, docs, profs := newTestService()

			handles.On("ResolveHandle", mock.Anything, aliceHandle).Return(alicePLC, nil)
			docs.On("Fetch", mock.Anything, alicePLC).Return(plcResolution(alicePLC), nil)
			profs.On("Fetch", mock.Anything, alicePLC).Return(profiles.Active(profiles.Profile{
				DID:         alicePLC.String(),
				Handle:      "alice.test",
				DisplayName: "Alice",
			}))

			direct, err := svc.Resolve(context.Background(), tt.direct)
			require.NoError(t, err)
			fromURL, err := svc.Resolve(context.Background(), tt.profile)
			require.NoError(t, err)

			assert.Equal(t, direct, fromURL)
		})
	}
}

func TestResolve_MalformedPLCIdentifierIsDIDNotFound(t *testing.T) {
	svc, _, docs, profs := newTestService()
	did := syntax.DID("did:plc:abc!")

	docs.On("Fetch", mock.Anything, did).Return(nil, &identity.ErrResolutionFailed{
		Identifier: did.String(),
		Source:     identity.UpstreamPLCDocument,
		Cause:      &identity.ErrUpstreamStatus{URL: "https://plc.directory/did:plc:abc%21", StatusCode: 404},
	})
	profs.On("Fetch", mock.Anything, did).Return(profiles.NotFound())

	_, err := svc.Resolve(context.Background(), "did:plc:abc!")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDIDNotFound))

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, `Could not find "did:plc:abc!"`, pe.Message())
}
