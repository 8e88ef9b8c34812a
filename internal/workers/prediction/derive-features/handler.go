// internal/workers/prediction/derive-features/handler.go
package derivefeatures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "derive-features"

var ErrMissingProfile = errors.New("MISSING_PROFILE")

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "MISSING_PROFILE", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Profile == nil {
		return nil, fmt.Errorf("%w: profile is required", ErrMissingProfile)
	}

	derived := Derive(*input.Profile)

	h.logger.Debug("features derived", map[string]interface{}{
		"adBurden":          derived.AdBurden,
		"satisfactionScore": derived.SatisfactionScore,
		"timePerSong":       derived.TimePerSong,
	})

	return &Output{
		Features: models.FeatureVector{
			RawUserProfile:  *input.Profile,
			DerivedFeatures: derived,
		},
	}, nil
}

// Derive computes the three engineered ratios from the raw activity profile.
// The formulas replicate the training pipeline's feature engineering exactly,
// including the +1 denominators that keep every ratio defined at zero
// listening time and zero songs per day. Any change here invalidates the
// deployed artifact.
func Derive(p models.RawUserProfile) models.DerivedFeatures {
	return models.DerivedFeatures{
		AdBurden:          float64(p.AdsListenedPerWeek) / (p.ListeningTimeMinutes + 1),
		SatisfactionScore: float64(p.SongsPlayedPerDay) * (1 - p.SkipRate),
		TimePerSong:       p.ListeningTimeMinutes / (float64(p.SongsPlayedPerDay) + 1),
	}
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, _ = client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
