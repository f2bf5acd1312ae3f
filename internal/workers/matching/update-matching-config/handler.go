// internal/workers/matching/update-matching-config/handler.go
package updatematchingconfig

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/common/observability"
	"neighborhood-matcher/internal/matching"
)

const TaskType = "update-matching-config"

type Handler struct {
	config     *Config
	service    *matching.Service
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the worker. obs may be nil.
func NewHandler(cfg *Config, service *matching.Service, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		service:    service,
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
	} else if h.completeJob(ctx, client, job, output) {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	} else {
		status = "failed"
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), status)
}

func (h *Handler) parseAndExecute(ctx context.Context, job entities.Job) (*Output, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewConfigUpdateInvalidError(err)
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) bool {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, errors.NewInternalError(err))
		return false
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return false
	}
	return true
}

// Execute applies the update, or returns the live configuration when the
// input carries no section.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.empty() {
		return &Output{MatchingConfig: h.service.Config()}, nil
	}

	cfg, err := h.service.UpdateConfig(matching.ConfigUpdate{
		Weights:    input.Weights,
		Thresholds: input.Thresholds,
		Penalties:  input.Penalties,
	})
	if err != nil {
		return nil, errors.NewConfigUpdateInvalidError(err)
	}

	h.logger.Info("matching configuration replaced", map[string]interface{}{
		"minScore":      cfg.Thresholds.MinScore,
		"minConfidence": cfg.Thresholds.MinConfidence,
		"maxResults":    cfg.Thresholds.MaxResults,
		"weights":       len(cfg.Weights),
	})
	return &Output{MatchingConfig: cfg, Updated: true}, nil
}
