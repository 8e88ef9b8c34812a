// internal/workers/retention/send-retention-offer/handler.go
package sendretentionoffer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "churn-predictor/internal/common/errors"
	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/common/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-retention-offer"

// Service interfaces for mocking; the common/aws wrappers satisfy them.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := commonerrors.CodeOf(err)
		retries := int32(commonerrors.GetRetryCount(code))
		h.failJob(client, job, string(code), err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	// Offers only go to users the model flagged. Non-risk results pass
	// through without side effects.
	if !input.Prediction.IsChurnRisk {
		return &Output{Status: StatusSkipped, Channels: []string{}}, nil
	}

	offerID := uuid.New().String()
	channels := []string{}

	if h.config.EmailEnabled && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email); err != nil {
			return nil, commonerrors.NewOfferSendFailedError(ChannelEmail, err)
		}
		channels = append(channels, ChannelEmail)
		metrics.RetentionOffersSent.WithLabelValues(ChannelEmail).Inc()
	}

	if h.config.PushEnabled && input.EndpointArn != "" {
		if err := h.sendPush(ctx, input.EndpointArn); err != nil {
			return nil, commonerrors.NewOfferSendFailedError(ChannelPush, err)
		}
		channels = append(channels, ChannelPush)
		metrics.RetentionOffersSent.WithLabelValues(ChannelPush).Inc()
	}

	if len(channels) == 0 {
		h.logger.Warn("no delivery channel available", map[string]interface{}{
			"userId": input.UserID,
		})
		return &Output{OfferID: offerID, Status: StatusDisabled, Channels: channels}, nil
	}

	return &Output{
		OfferID:  offerID,
		Status:   StatusSent,
		Channels: channels,
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) sendEmail(ctx context.Context, to string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(offerSubject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(offerBody)},
				Html: &types.Content{Data: aws.String(offerBody)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendPush(ctx context.Context, endpointArn string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(endpointArn),
		Message:   aws.String(offerBody),
	})
	return err
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	if retries > 0 {
		_, _ = client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(retries).
			ErrorMessage(errorMessage).
			Send(context.Background())
		return
	}

	_, _ = client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
