// internal/workers/prediction/fetch-user-profile/handler_test.go
package fetchuserprofile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	commonerrors "churn-predictor/internal/common/errors"
	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T, db *sql.DB, rdb *redis.Client) *Handler {
	return NewHandler(LoadConfig(), db, rdb, logger.NewTestLogger(t))
}

func storedProfile(userID string) *models.RawUserProfile {
	return &models.RawUserProfile{
		UserID:               userID,
		Age:                  34,
		Gender:               "Male",
		Country:              "CA",
		SubscriptionType:     "Free",
		DeviceType:           "Web",
		ListeningTimeMinutes: 45.5,
		SongsPlayedPerDay:    12,
		SkipRate:             0.4,
		AdsListenedPerWeek:   9,
		OfflineListening:     0,
	}
}

func profileRows(p *models.RawUserProfile) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"age", "gender", "country", "subscription_type", "device_type",
		"listening_time_minutes", "songs_played_per_day", "skip_rate",
		"ads_listened_per_week", "offline_listening",
	}).AddRow(
		p.Age, p.Gender, p.Country, p.SubscriptionType, p.DeviceType,
		p.ListeningTimeMinutes, p.SongsPlayedPerDay, p.SkipRate,
		p.AdsListenedPerWeek, p.OfflineListening,
	)
}

func TestExecute_InlineProfilePassesThrough(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	h := createTestHandler(t, db, rdb)
	inline := storedProfile("user-1")

	output, err := h.Execute(context.Background(), &Input{UserID: "user-1", Profile: inline})

	require.NoError(t, err)
	assert.Same(t, inline, output.Profile)
	assert.False(t, output.CacheHit)
	assert.False(t, output.FromStore)
}

func TestExecute_CacheHit(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	cached := storedProfile("user-2")
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	redisMock.ExpectGet("profile:user-2").SetVal(string(data))

	h := createTestHandler(t, db, rdb)
	output, err := h.Execute(context.Background(), &Input{UserID: "user-2"})

	require.NoError(t, err)
	assert.True(t, output.CacheHit)
	assert.False(t, output.FromStore)
	assert.Equal(t, cached.Country, output.Profile.Country)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_CacheMissFallsBackToStore(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	stored := storedProfile("user-3")
	redisMock.ExpectGet("profile:user-3").RedisNil()

	dbMock.ExpectQuery("SELECT age, gender, country").
		WithArgs("user-3").
		WillReturnRows(profileRows(stored))

	cfg := LoadConfig()
	data, err := json.Marshal(stored)
	require.NoError(t, err)
	redisMock.ExpectSet("profile:user-3", data, cfg.CacheTTL).SetVal("OK")

	h := createTestHandler(t, db, rdb)
	output, err := h.Execute(context.Background(), &Input{UserID: "user-3"})

	require.NoError(t, err)
	assert.True(t, output.FromStore)
	assert.False(t, output.CacheHit)
	assert.Equal(t, "user-3", output.Profile.UserID)
	assert.Equal(t, 34, output.Profile.Age)
	assert.InDelta(t, 0.4, output.Profile.SkipRate, 1e-9)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_ProfileNotFound(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet("profile:user-404").RedisNil()
	dbMock.ExpectQuery("SELECT age, gender, country").
		WithArgs("user-404").
		WillReturnError(sql.ErrNoRows)

	h := createTestHandler(t, db, rdb)
	_, err = h.Execute(context.Background(), &Input{UserID: "user-404"})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeProfileNotFound, commonerrors.CodeOf(err))
}

func TestExecute_DatabaseErrorIsRetryable(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet("profile:user-5").RedisNil()
	dbMock.ExpectQuery("SELECT age, gender, country").
		WithArgs("user-5").
		WillReturnError(fmt.Errorf("connection reset"))

	h := createTestHandler(t, db, rdb)
	_, err = h.Execute(context.Background(), &Input{UserID: "user-5"})

	require.Error(t, err)
	code := commonerrors.CodeOf(err)
	assert.Equal(t, commonerrors.ErrCodeProfileFetchFailed, code)
	assert.True(t, commonerrors.IsRetryableErrorCode(code))
}

func TestExecute_CacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stored := storedProfile("user-7")
	// The store is hit exactly once; the second call must be served from
	// the cache entry written by the first.
	dbMock.ExpectQuery("SELECT age, gender, country").
		WithArgs("user-7").
		WillReturnRows(profileRows(stored))

	h := createTestHandler(t, db, rdb)

	first, err := h.Execute(context.Background(), &Input{UserID: "user-7"})
	require.NoError(t, err)
	assert.True(t, first.FromStore)

	second, err := h.Execute(context.Background(), &Input{UserID: "user-7"})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Profile.SkipRate, second.Profile.SkipRate)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_CacheExpiryFallsBackToStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stored := storedProfile("user-8")
	dbMock.ExpectQuery("SELECT age, gender, country").
		WithArgs("user-8").
		WillReturnRows(profileRows(stored))
	dbMock.ExpectQuery("SELECT age, gender, country").
		WithArgs("user-8").
		WillReturnRows(profileRows(stored))

	h := createTestHandler(t, db, rdb)

	_, err = h.Execute(context.Background(), &Input{UserID: "user-8"})
	require.NoError(t, err)

	mr.FastForward(LoadConfig().CacheTTL + time.Minute)

	second, err := h.Execute(context.Background(), &Input{UserID: "user-8"})
	require.NoError(t, err)
	assert.True(t, second.FromStore)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_EmptyUserID(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	h := createTestHandler(t, db, rdb)
	_, err = h.Execute(context.Background(), &Input{})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeProfileNotFound, commonerrors.CodeOf(err))
}
