// internal/workers/prediction/score-churn/handler.go
package scorechurn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "churn-predictor/internal/common/errors"
	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/common/metrics"
	"churn-predictor/internal/common/model"
	"churn-predictor/internal/common/observability"
	"churn-predictor/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "score-churn"

type Handler struct {
	config       *Config
	holder       *model.Holder
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
	obs          *observability.Observability
}

// NewHandler wires the scoring worker. obs may be nil in tests.
func NewHandler(config *Config, holder *model.Holder, obs *observability.Observability, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		holder:       holder,
		logger:       workerLog,
		errorHandler: commonerrors.NewErrorHandler(workerLog),
		obs:          obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			fmt.Errorf("parse input: %w", err))
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(commonerrors.CodeOf(err))).Inc()
		if h.obs != nil {
			h.obs.RecordJobProcessed(ctx, "failed")
		}
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if h.obs != nil {
		h.obs.RecordJobProcessed(ctx, "completed")
		h.obs.RecordJobDuration(ctx, time.Since(start), "completed")
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	clf, err := h.holder.Get()
	if err != nil {
		return nil, err
	}

	fields := input.Features.Fields()
	if err := clf.ValidateSchema(fields); err != nil {
		return nil, err
	}

	scoreStart := time.Now()
	probability, err := clf.ScoreProbability(fields)
	if err != nil {
		return nil, err
	}
	if h.obs != nil {
		h.obs.RecordInferenceDuration(ctx, time.Since(scoreStart), clf.ModelVersion())
	}

	isRisk := IsChurnRisk(probability, h.config.Threshold)

	riskLabel := "no"
	if isRisk {
		riskLabel = "yes"
	}
	metrics.PredictionsScored.WithLabelValues(riskLabel).Inc()
	metrics.ChurnProbability.Observe(probability)

	h.logger.Info("prediction scored", map[string]interface{}{
		"userId":           input.UserID,
		"modelVersion":     clf.ModelVersion(),
		"churnProbability": probability,
		"threshold":        h.config.Threshold,
		"isChurnRisk":      isRisk,
	})

	return &Output{
		UserID: input.UserID,
		Prediction: models.PredictionResult{
			PredictionID:       uuid.New().String(),
			ModelVersion:       clf.ModelVersion(),
			ChurnProbability:   probability,
			Threshold:          h.config.Threshold,
			IsChurnRisk:        isRisk,
			RecommendedActions: SelectActions(isRisk),
		},
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
