// internal/workers/retention/build-retention-playlist/handler.go
package buildretentionplaylist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	commonerrors "churn-predictor/internal/common/errors"
	"churn-predictor/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const TaskType = "build-retention-playlist"

type Handler struct {
	config   *Config
	esClient *elasticsearch.Client
	logger   logger.Logger
}

func NewHandler(config *Config, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		esClient: esClient,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if input.UserID == "" {
		return nil, commonerrors.NewProfileNotFoundError("")
	}

	raw, err := h.queryGenreAggregation(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	stats, err := parseGenreAggregation(raw)
	if err != nil {
		return nil, commonerrors.NewSearchQueryFailedError(err)
	}

	excluded := selectExcludedGenres(stats, h.config.MinSkipRatio, h.config.MinPlays)

	h.logger.Info("exclusion list built", map[string]interface{}{
		"userId":         input.UserID,
		"genreCount":     len(stats),
		"excludedGenres": excluded,
	})

	return &Output{
		UserID:         input.UserID,
		ExcludedGenres: excluded,
		GenreStats:     stats,
	}, nil
}

func (h *Handler) queryGenreAggregation(ctx context.Context, userID string) (map[string]interface{}, error) {
	queryBody := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"user_id.keyword": userID},
		},
		"aggs": map[string]interface{}{
			"genres": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "genre.keyword",
					"size":  h.config.MaxGenres,
				},
				"aggs": map[string]interface{}{
					"skips": map[string]interface{}{
						"filter": map[string]interface{}{
							"term": map[string]interface{}{"skipped": true},
						},
					},
				},
			},
		},
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{h.config.EventsIndex},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, commonerrors.NewSearchTimeoutError(h.config.EventsIndex)
		}
		return nil, commonerrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, commonerrors.NewIndexNotFoundError(h.config.EventsIndex)
		}
		return nil, commonerrors.NewSearchQueryFailedError(fmt.Errorf("search failed: %s", res.String()))
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, commonerrors.NewSearchQueryFailedError(err)
	}
	return r, nil
}

// parseGenreAggregation flattens the terms + skip-filter aggregation into
// per-genre stats, ordered by skip ratio descending.
func parseGenreAggregation(response map[string]interface{}) ([]GenreStats, error) {
	aggs, ok := response["aggregations"].(map[string]interface{})
	if !ok {
		return []GenreStats{}, nil
	}
	genres, ok := aggs["genres"].(map[string]interface{})
	if !ok {
		return []GenreStats{}, nil
	}
	buckets, ok := genres["buckets"].([]interface{})
	if !ok {
		return []GenreStats{}, nil
	}

	stats := make([]GenreStats, 0, len(buckets))
	for _, b := range buckets {
		bucket, ok := b.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected bucket shape: %T", b)
		}

		genre, _ := bucket["key"].(string)
		plays := asInt64(bucket["doc_count"])

		var skips int64
		if skipAgg, ok := bucket["skips"].(map[string]interface{}); ok {
			skips = asInt64(skipAgg["doc_count"])
		}

		s := GenreStats{Genre: genre, Plays: plays, Skips: skips}
		if plays > 0 {
			s.SkipRatio = float64(skips) / float64(plays)
		}
		stats = append(stats, s)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].SkipRatio > stats[j].SkipRatio
	})
	return stats, nil
}

// selectExcludedGenres picks the genres the rebuilt playlist must avoid.
func selectExcludedGenres(stats []GenreStats, minSkipRatio float64, minPlays int) []string {
	excluded := []string{}
	for _, s := range stats {
		if s.Plays >= int64(minPlays) && s.SkipRatio >= minSkipRatio {
			excluded = append(excluded, s.Genre)
		}
	}
	return excluded
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
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
