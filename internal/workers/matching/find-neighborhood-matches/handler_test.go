// internal/workers/matching/find-neighborhood-matches/handler_test.go
package findneighborhoodmatches

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/catalog"
	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/models"
	"neighborhood-matcher/internal/profile"
	"neighborhood-matcher/pkg/registry"
)

// ==========================
// Test Helpers
// ==========================

const lifestyleJSON = `{"walkability":8,"transit":8,"safety":8,"nightlife":6,"familyFriendly":5,"culture":8,"outdoors":6,"dining":8,"cost":4}`

const profileJSON = `{"id":"u1","name":"Alex","age":29,"budget":{"min":2500,"max":4500},"lifestyle":` + lifestyleJSON + `,"priorities":["transit","dining"]}`

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*models.UserProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type failingProvider struct{ err error }

func (f failingProvider) Name() string { return "postgres" }
func (f failingProvider) GetNeighborhoods(context.Context) ([]models.Neighborhood, error) {
	return nil, f.err
}
func (f failingProvider) GetNeighborhood(context.Context, string) (*models.Neighborhood, error) {
	return nil, f.err
}

func decodeProfile(t *testing.T) *models.UserProfile {
	t.Helper()
	p, err := profile.Decode([]byte(profileJSON))
	require.NoError(t, err)
	return p
}

func createTestHandler(t *testing.T, provider catalog.Provider, profiles profile.Source) *Handler {
	t.Helper()
	svc, err := matching.NewService(matching.DefaultConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	if provider == nil {
		provider = catalog.NewStaticProvider(nil)
	}
	cfg := LoadConfig(config.WorkerConfig{Timeout: 5000}, nil)
	return NewHandler(cfg, svc, provider, profiles, nil, logger.NewTestLogger(t))
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_InlineProfile(t *testing.T) {
	handler := createTestHandler(t, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{UserProfile: json.RawMessage(profileJSON)})
	require.NoError(t, err)

	assert.NotEmpty(t, output.BatchID)
	assert.Equal(t, 6, output.Evaluated)
	assert.Equal(t, len(output.Matches), output.Returned)
	require.NotEmpty(t, output.Matches)
	for i := 1; i < len(output.Matches); i++ {
		assert.GreaterOrEqual(t, output.Matches[i-1].RankValue(), output.Matches[i].RankValue())
	}
}

func TestHandler_Execute_ProfileLookup(t *testing.T) {
	profiles := &mockProfiles{}
	profiles.On("Get", mock.Anything, "u1").Return(decodeProfile(t), nil)
	handler := createTestHandler(t, nil, profiles)

	output, err := handler.Execute(context.Background(), &Input{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 6, output.Evaluated)
	profiles.AssertExpectations(t)
}

func TestHandler_Execute_NeighborhoodFilter(t *testing.T) {
	handler := createTestHandler(t, nil, nil)

	output, err := handler.Execute(context.Background(), &Input{
		UserProfile:     json.RawMessage(profileJSON),
		NeighborhoodIDs: []string{"pearl-portland", "soma-sf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, output.Evaluated)
	for _, m := range output.Matches {
		assert.Contains(t, []string{"pearl-portland", "soma-sf"}, m.Neighborhood.ID)
	}
}

func TestHandler_Execute_Errors(t *testing.T) {
	lookupFailed := &mockProfiles{}
	lookupFailed.On("Get", mock.Anything, "u1").Return(nil, stderrors.New("connection refused"))
	missing := &mockProfiles{}
	missing.On("Get", mock.Anything, "ghost").Return(nil, profile.ErrNotFound)

	broken := catalog.NewStaticProvider([]models.Neighborhood{{ID: "", Name: "nameless"}})

	tests := []struct {
		name     string
		provider catalog.Provider
		profiles profile.Source
		input    *Input
		code     errors.ErrorCode
	}{
		{
			name:  "no profile at all",
			input: &Input{},
			code:  errors.ErrCodeProfileInvalid,
		},
		{
			name:  "profile missing factor",
			input: &Input{UserProfile: json.RawMessage(`{"budget":{"min":1,"max":2},"lifestyle":{"walkability":5}}`)},
			code:  errors.ErrCodeProfileInvalid,
		},
		{
			name:     "profile not found",
			profiles: missing,
			input:    &Input{UserID: "ghost"},
			code:     errors.ErrCodeProfileNotFound,
		},
		{
			name:     "profile lookup failed",
			profiles: lookupFailed,
			input:    &Input{UserID: "u1"},
			code:     errors.ErrCodeProfileLookupFailed,
		},
		{
			name:     "catalog down",
			provider: failingProvider{err: stderrors.New("connection refused")},
			input:    &Input{UserProfile: json.RawMessage(profileJSON)},
			code:     errors.ErrCodeCatalogUnavailable,
		},
		{
			name:     "catalog index missing",
			provider: failingProvider{err: catalog.ErrIndexNotFound},
			input:    &Input{UserProfile: json.RawMessage(profileJSON)},
			code:     errors.ErrCodeCatalogQueryFailed,
		},
		{
			name:     "catalog timeout",
			provider: failingProvider{err: context.DeadlineExceeded},
			input:    &Input{UserProfile: json.RawMessage(profileJSON)},
			code:     errors.ErrCodeCatalogTimeout,
		},
		{
			name:  "unknown neighborhood ids",
			input: &Input{UserProfile: json.RawMessage(profileJSON), NeighborhoodIDs: []string{"atlantis"}},
			code:  errors.ErrCodeNeighborhoodNotFound,
		},
		{
			name:     "contract violation",
			provider: broken,
			input:    &Input{UserProfile: json.RawMessage(profileJSON)},
			code:     errors.ErrCodeContractViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.provider, tt.profiles)
			_, err := handler.Execute(context.Background(), tt.input)
			requireCode(t, err, tt.code)
		})
	}
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	handler := createTestHandler(t, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := handler.Execute(ctx, &Input{UserProfile: json.RawMessage(profileJSON)})
	require.Error(t, err)
	// The static provider notices the deadline first.
	requireCode(t, err, errors.ErrCodeCatalogTimeout)
}

// ==========================
// Input parsing
// ==========================

func TestHandler_ParseAndExecute_InputSchema(t *testing.T) {
	handler := createTestHandler(t, nil, nil)
	handler.config = LoadConfig(config.WorkerConfig{}, &registry.Activity{
		TaskType: TaskType,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"neighborhoodIds": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
		},
	})

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       1,
		Variables: `{"userProfile":` + profileJSON + `,"neighborhoodIds":"soma-sf"}`,
	}}
	_, err := handler.parseAndExecute(context.Background(), job)
	requireCode(t, err, errors.ErrCodeInputSchemaInvalid)

	job.Variables = `{"userProfile":` + profileJSON + `,"neighborhoodIds":["soma-sf"]}`
	output, err := handler.parseAndExecute(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, output.Evaluated)
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{}, nil)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Nil(t, cfg.InputSchema)

	cfg = LoadConfig(config.WorkerConfig{Timeout: 1500}, nil)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
}
