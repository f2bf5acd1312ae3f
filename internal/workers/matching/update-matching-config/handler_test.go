// internal/workers/matching/update-matching-config/handler_test.go
package updatematchingconfig

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/common/config"
	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/models"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	svc, err := matching.NewService(matching.DefaultConfig(), logger.NewTestLogger(t))
	require.NoError(t, err)
	return NewHandler(LoadConfig(config.WorkerConfig{}), svc, nil, logger.NewTestLogger(t))
}

func decodeInput(t *testing.T, raw string) *Input {
	t.Helper()
	var input Input
	require.NoError(t, json.Unmarshal([]byte(raw), &input))
	return &input
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantUpdated    bool
		validateOutput func(t *testing.T, cfg matching.Config)
	}{
		{
			name:  "empty input reads config",
			input: `{"unrelated":"process variable"}`,
			validateOutput: func(t *testing.T, cfg matching.Config) {
				assert.Equal(t, matching.DefaultConfig(), cfg)
			},
		},
		{
			name:        "weights replaced wholesale",
			input:       `{"weights":{"safety":2,"cost":0.5}}`,
			wantUpdated: true,
			validateOutput: func(t *testing.T, cfg matching.Config) {
				assert.Equal(t, matching.Weights{models.Safety: 2, models.Cost: 0.5}, cfg.Weights)
				assert.Equal(t, 1.0, cfg.Weight(models.Dining))
				assert.Equal(t, matching.DefaultConfig().Thresholds, cfg.Thresholds)
			},
		},
		{
			name:        "partial thresholds zero the omitted fields",
			input:       `{"thresholds":{"minScore":0.5}}`,
			wantUpdated: true,
			validateOutput: func(t *testing.T, cfg matching.Config) {
				assert.Equal(t, matching.Thresholds{MinScore: 0.5}, cfg.Thresholds)
				assert.Equal(t, matching.DefaultConfig().Weights, cfg.Weights)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t)

			output, err := handler.Execute(context.Background(), decodeInput(t, tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantUpdated, output.Updated)
			tt.validateOutput(t, output.MatchingConfig)
			assert.Equal(t, output.MatchingConfig, handler.service.Config())
		})
	}
}

func TestHandler_Execute_Rejected(t *testing.T) {
	handler := createTestHandler(t)

	_, err := handler.Execute(context.Background(), decodeInput(t, `{"penalties":{"incompleteData":2}}`))
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeConfigUpdateInvalid, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, matching.DefaultConfig(), handler.service.Config())
}

func TestInput_UnknownFactorWeight(t *testing.T) {
	var input Input
	err := json.Unmarshal([]byte(`{"weights":{"parking":1}}`), &input)
	assert.ErrorIs(t, err, models.ErrUnknownFactor)
}

func TestOutput_JSONShape(t *testing.T) {
	raw, err := json.Marshal(Output{MatchingConfig: matching.DefaultConfig(), Updated: true})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	cfg := decoded["matchingConfig"].(map[string]interface{})
	weights := cfg["weights"].(map[string]interface{})
	assert.Equal(t, 1.2, weights["safety"])
	assert.Equal(t, 0.4, cfg["thresholds"].(map[string]interface{})["minScore"])
}

func TestHandler_ParseAndExecute(t *testing.T) {
	handler := createTestHandler(t)
	require.NotNil(t, handler.obs)

	job := func(vars string) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: vars}}
	}

	output, err := handler.parseAndExecute(context.Background(), job(`{"thresholds":{"minScore":0.5,"minConfidence":0.5,"maxResults":3}}`))
	require.NoError(t, err)
	assert.True(t, output.Updated)
	assert.Equal(t, 3, handler.service.Config().Thresholds.MaxResults)

	_, err = handler.parseAndExecute(context.Background(), job(`{`))
	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeConfigUpdateInvalid, stdErr.Code)
}
