// internal/workers/prediction/validate-profile/handler.go
package validateprofile

import (
	"context"
	"encoding/json"
	"fmt"

	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const TaskType = "validate-profile"

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
		h.failJob(client, job, "PROFILE_VALIDATION_FAILED", err.Error())
		return
	}

	if !output.IsValid {
		details, _ := json.Marshal(output.ValidationErrors)
		h.failJob(client, job, "PROFILE_VALIDATION_FAILED", string(details))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Profile == nil {
		return &Output{
			IsValid: false,
			ValidationErrors: []ValidationError{
				{Field: "profile", Message: "profile is required"},
			},
		}, nil
	}

	schemaLoader := gojsonschema.NewGoLoader(profileSchema())
	documentLoader := gojsonschema.NewGoLoader(input.Profile)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		validationErrors := make([]ValidationError, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			validationErrors = append(validationErrors, ValidationError{
				Field:   desc.Field(),
				Message: desc.Description(),
			})
		}
		h.logger.Warn("profile rejected", map[string]interface{}{
			"errorCount": len(validationErrors),
		})
		return &Output{IsValid: false, ValidationErrors: validationErrors}, nil
	}

	// Round-trip into the typed struct now that the shape is known good.
	raw, err := json.Marshal(input.Profile)
	if err != nil {
		return nil, fmt.Errorf("re-encode profile: %w", err)
	}
	var profile models.RawUserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	return &Output{
		IsValid:          true,
		Profile:          &profile,
		ValidationErrors: []ValidationError{},
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
