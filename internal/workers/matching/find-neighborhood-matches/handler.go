// internal/workers/matching/find-neighborhood-matches/handler.go
package findneighborhoodmatches

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"neighborhood-matcher/internal/catalog"
	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/common/observability"
	"neighborhood-matcher/internal/common/validation"
	"neighborhood-matcher/internal/matching"
	"neighborhood-matcher/internal/profile"
)

const TaskType = "find-neighborhood-matches"

type Handler struct {
	config     *Config
	service    *matching.Service
	catalog    catalog.Provider
	profiles   profile.Source
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the worker. profiles and obs may be nil.
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
	if err != nil {
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		h.errHandler.HandleJobError(ctx, client, job, stdErr)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) parseAndExecute(ctx context.Context, job entities.Job) (*Output, error) {
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputSchemaInvalidError(err.Error())
	}
	return h.Execute(ctx, &input)
}

// Execute resolves the profile, loads the catalog and runs one match batch.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	user, err := profile.Resolve(ctx, h.profiles, input.UserID, input.UserProfile)
	if err != nil {
		return nil, mapProfileError(input.UserID, err)
	}

	neighborhoods, err := h.catalog.GetNeighborhoods(ctx)
	if err != nil {
		return nil, mapCatalogError(ctx, h.catalog.Name(), err)
	}
	if len(input.NeighborhoodIDs) > 0 {
		neighborhoods = catalog.FilterByIDs(neighborhoods, input.NeighborhoodIDs)
		if len(neighborhoods) == 0 {
			return nil, errors.NewNeighborhoodNotFoundError(strings.Join(input.NeighborhoodIDs, ","))
		}
	}

	matches, err := h.service.FindMatches(ctx, *user, neighborhoods)
	if err != nil {
		return nil, mapMatchingError(err)
	}

	metrics.MatchesEvaluated.Add(float64(len(neighborhoods)))
	metrics.MatchesReturned.Add(float64(len(matches)))
	for _, m := range matches {
		metrics.MatchScore.Observe(m.Score)
		metrics.MatchConfidence.Observe(m.Confidence)
	}
	h.obs.RecordMatchBatch(ctx, len(neighborhoods), len(matches))

	output := &Output{
		BatchID:   uuid.NewString(),
		Matches:   matches,
		Evaluated: len(neighborhoods),
		Returned:  len(matches),
	}

	h.logger.Info("neighborhood matches found", map[string]interface{}{
		"batchId":   output.BatchID,
		"userId":    user.ID,
		"evaluated": output.Evaluated,
		"returned":  output.Returned,
	})
	return output, nil
}

func mapProfileError(userID string, err error) error {
	switch {
	case stderrors.Is(err, profile.ErrInvalid), stderrors.Is(err, profile.ErrMissing):
		return errors.NewProfileInvalidError(err.Error())
	case stderrors.Is(err, profile.ErrNotFound):
		return errors.NewProfileNotFoundError(userID)
	default:
		return errors.NewProfileLookupFailedError(userID, err)
	}
}

func mapCatalogError(ctx context.Context, source string, err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewCatalogTimeoutError(source)
	case stderrors.Is(err, catalog.ErrIndexNotFound):
		return errors.NewCatalogQueryFailedError(source, err)
	default:
		return errors.NewCatalogUnavailableError(err)
	}
}

func mapMatchingError(err error) error {
	switch {
	case stderrors.Is(err, matching.ErrContractViolation):
		return errors.NewContractViolationError(err)
	case stderrors.Is(err, matching.ErrCancelled):
		return errors.NewMatchingCancelledError(err)
	default:
		return errors.NewInternalError(err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to encode job output", map[string]interface{}{"jobKey": job.Key, "error": err})
		h.errHandler.HandleJobError(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key, "returned": output.Returned})
}
