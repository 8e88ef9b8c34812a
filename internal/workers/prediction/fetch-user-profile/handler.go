// internal/workers/prediction/fetch-user-profile/handler.go
package fetchuserprofile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	commonerrors "churn-predictor/internal/common/errors"
	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "fetch-user-profile"

const profileQuery = `
	SELECT age, gender, country, subscription_type, device_type,
	       listening_time_minutes, songs_played_per_day, skip_rate,
	       ads_listened_per_week, offline_listening
	FROM user_activity_profiles
	WHERE user_id = $1`

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
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
	if input.Profile != nil {
		return &Output{Profile: input.Profile}, nil
	}

	if input.UserID == "" {
		return nil, commonerrors.NewProfileNotFoundError("")
	}

	cacheKey := "profile:" + input.UserID
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var profile models.RawUserProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &Output{Profile: &profile, CacheHit: true}, nil
		}
		// Poisoned cache entry, drop it and fall through to the store.
		h.redis.Del(ctx, cacheKey)
	}

	profile, err := h.loadFromStore(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(profile); err == nil {
		h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
	}

	return &Output{Profile: profile, FromStore: true}, nil
}

func (h *Handler) loadFromStore(ctx context.Context, userID string) (*models.RawUserProfile, error) {
	profile := models.RawUserProfile{UserID: userID}

	err := h.db.QueryRowContext(ctx, profileQuery, userID).Scan(
		&profile.Age,
		&profile.Gender,
		&profile.Country,
		&profile.SubscriptionType,
		&profile.DeviceType,
		&profile.ListeningTimeMinutes,
		&profile.SongsPlayedPerDay,
		&profile.SkipRate,
		&profile.AdsListenedPerWeek,
		&profile.OfflineListening,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commonerrors.NewProfileNotFoundError(userID)
		}
		return nil, commonerrors.NewProfileFetchFailedError(err)
	}

	return &profile, nil
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
