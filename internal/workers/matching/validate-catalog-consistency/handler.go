// internal/workers/matching/validate-catalog-consistency/handler.go
package validatecatalogconsistency

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"neighborhood-matcher/internal/catalog"
	"neighborhood-matcher/internal/common/errors"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
)

const TaskType = "validate-catalog-consistency"

type Handler struct {
	config     *Config
	catalog    catalog.Provider
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(cfg *Config, provider catalog.Provider, log logger.Logger) *Handler {
	if cfg.Sources == nil {
		cfg.Sources = catalog.DefaultDataSources()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		catalog:    provider,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInputSchemaInvalidError(err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

// Execute audits the catalog, optionally after recomputing data quality from
// the configured sources. Findings are reported, never raised as errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	neighborhoods, err := h.catalog.GetNeighborhoods(ctx)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewCatalogTimeoutError(h.catalog.Name())
		}
		return nil, errors.NewCatalogUnavailableError(err)
	}

	if len(input.NeighborhoodIDs) > 0 {
		neighborhoods = catalog.FilterByIDs(neighborhoods, input.NeighborhoodIDs)
		if len(neighborhoods) == 0 {
			return nil, errors.NewNeighborhoodNotFoundError(strings.Join(input.NeighborhoodIDs, ","))
		}
	}

	if input.Enrich {
		neighborhoods, err = catalog.EnrichAll(neighborhoods, h.config.Sources)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
	}

	report := catalog.ValidateConsistency(neighborhoods)

	h.logger.Info("catalog consistency checked", map[string]interface{}{
		"checked":    len(neighborhoods),
		"issues":     len(report.Issues),
		"confidence": report.Confidence,
		"enriched":   input.Enrich,
	})
	if !report.Valid {
		h.logger.Warn("catalog has inconsistent records", map[string]interface{}{"issues": report.Issues})
	}

	return &Output{
		Valid:      report.Valid,
		Issues:     report.Issues,
		Confidence: report.Confidence,
		Checked:    len(neighborhoods),
		Source:     h.catalog.Name(),
	}, nil
}
