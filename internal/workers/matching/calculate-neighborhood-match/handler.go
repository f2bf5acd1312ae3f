// internal/workers/matching/calculate-neighborhood-match/handler.go
package calculateneighborhoodmatch

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"neighborhood-matcher/internal/catalog"
	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/common/observability"
	"neighborhood-matcher/internal/common/validation"
	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/models"
	"neighborhood-matcher/internal/profile"
)

const TaskType = "calculate-neighborhood-match"

type Handler struct {
	config     *Config
	service    *matching.Service
	catalog    catalog.Provider
	profiles   profile.Source
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(cfg *Config, service *matching.Service, provider catalog.Provider, profiles profile.Source, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		service:    service,
		catalog:    provider,
		profiles:   profiles,
		obs:        obs,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.parseAndExecute(ctx, job)
	status := "completed"
	if err != nil {
		status = "failed"
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, stdErr)
	} else {
		h.completeJob(ctx, client, job, output)
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), status)
}

func (h *Handler) parseAndExecute(ctx context.Context, job entities.Job) (*Output, error) {
	if len(h.config.InputSchema) > 0 {
		vars, err := job.GetVariablesAsMap()
		if err != nil {
			return nil, errors.NewInputSchemaInvalidError(err.Error())
		}
		result, err := validation.ValidateAgainst(h.config.InputSchema, vars)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		if !result.Valid {
			return nil, errors.NewInputSchemaInvalidError(result.Summary())
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputSchemaInvalidError(err.Error())
	}
	return h.Execute(ctx, &input)
}

// Execute scores a single (profile, neighborhood) pair against the live config.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	user, err := profile.Resolve(ctx, h.profiles, input.UserID, input.UserProfile)
	if err != nil {
		switch {
		case stderrors.Is(err, profile.ErrInvalid), stderrors.Is(err, profile.ErrMissing):
			return nil, errors.NewProfileInvalidError(err.Error())
		case stderrors.Is(err, profile.ErrNotFound):
			return nil, errors.NewProfileNotFoundError(input.UserID)
		default:
			return nil, errors.NewProfileLookupFailedError(input.UserID, err)
		}
	}

	n, err := h.neighborhood(ctx, input)
	if err != nil {
		return nil, err
	}

	match, err := h.service.CalculateMatch(*user, *n)
	if err != nil {
		return nil, errors.NewContractViolationError(err)
	}

	thresholds := h.service.Config().Thresholds
	output := &Output{
		Match:     match,
		Qualifies: match.Score >= thresholds.MinScore && match.Confidence >= thresholds.MinConfidence,
	}

	h.logger.Info("neighborhood match calculated", map[string]interface{}{
		"userId":         user.ID,
		"neighborhoodId": n.ID,
		"score":          match.Score,
		"confidence":     match.Confidence,
	})
	return output, nil
}

func (h *Handler) neighborhood(ctx context.Context, input *Input) (*models.Neighborhood, error) {
	if len(input.Neighborhood) > 0 && !bytes.Equal(bytes.TrimSpace(input.Neighborhood), []byte("null")) {
		result, err := validation.ValidateNeighborhoodJSON(input.Neighborhood)
		if err != nil {
			return nil, errors.NewInputSchemaInvalidError(err.Error())
		}
		if !result.Valid {
			return nil, errors.NewInputSchemaInvalidError(result.Summary())
		}
		var n models.Neighborhood
		if err := json.Unmarshal(input.Neighborhood, &n); err != nil {
			return nil, errors.NewContractViolationError(err)
		}
		return &n, nil
	}

	if input.NeighborhoodID == "" {
		return nil, errors.NewInputSchemaInvalidError("neighborhoodId or neighborhood is required")
	}

	n, err := h.catalog.GetNeighborhood(ctx, input.NeighborhoodID)
	switch {
	case err == nil:
		return n, nil
	case stderrors.Is(err, catalog.ErrNotFound):
		return nil, errors.NewNeighborhoodNotFoundError(input.NeighborhoodID)
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.NewCatalogTimeoutError(h.catalog.Name())
	default:
		return nil, errors.NewCatalogQueryFailedError(h.catalog.Name(), err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
	}
}
