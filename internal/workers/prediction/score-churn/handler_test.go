// internal/workers/prediction/score-churn/handler_test.go
package scorechurn

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	commonerrors "churn-predictor/internal/common/errors"
	"churn-predictor/internal/common/logger"
	"churn-predictor/internal/common/model"
	"churn-predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestArtifact builds a full-schema artifact whose linear score is just
// the intercept (all coefficients zero), so the scored probability is
// sigmoid(intercept) for any valid feature vector.
func writeTestArtifact(t *testing.T, intercept float64) string {
	t.Helper()

	encoders := map[string]map[string]float64{}
	for col, values := range map[string][]string{
		"gender":            models.Genders,
		"country":           models.Countries,
		"subscription_type": models.SubscriptionTypes,
		"device_type":       models.DeviceTypes,
	} {
		enc := map[string]float64{}
		for i, v := range values {
			enc[v] = float64(i)
		}
		encoders[col] = enc
	}

	coefficients := map[string]float64{}
	for _, name := range models.FeatureNames {
		coefficients[name] = 0
	}

	artifact := map[string]interface{}{
		"modelVersion": "test-v1",
		"schema":       models.FeatureNames,
		"encoders":     encoders,
		"coefficients": coefficients,
		"intercept":    intercept,
	}

	data, err := json.Marshal(artifact)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "churn_model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testFeatures() models.FeatureVector {
	return models.FeatureVector{
		RawUserProfile: models.RawUserProfile{
			UserID:               "user-9",
			Age:                  25,
			Gender:               "Male",
			Country:              "US",
			SubscriptionType:     "Free",
			DeviceType:           "Mobile",
			ListeningTimeMinutes: 60,
			SongsPlayedPerDay:    20,
			SkipRate:             0.3,
			AdsListenedPerWeek:   5,
			OfflineListening:     1,
		},
		DerivedFeatures: models.DerivedFeatures{
			AdBurden:          5.0 / 61.0,
			SatisfactionScore: 14.0,
			TimePerSong:       60.0 / 21.0,
		},
	}
}

func newTestHandler(t *testing.T, artifactPath string) *Handler {
	return NewHandler(LoadConfig(), model.NewHolder(artifactPath), nil, logger.NewTestLogger(t))
}

func TestIsChurnRisk_InclusiveBoundary(t *testing.T) {
	assert.True(t, IsChurnRisk(0.35, 0.35))
	assert.False(t, IsChurnRisk(0.349999, 0.35))
	assert.True(t, IsChurnRisk(0.350001, 0.35))
	assert.True(t, IsChurnRisk(1.0, 0.35))
	assert.False(t, IsChurnRisk(0.0, 0.35))
}

func TestSelectActions_StaticLookup(t *testing.T) {
	risk := SelectActions(true)
	require.Len(t, risk, 2)
	assert.Equal(t, ActionDiscountOffer, risk[0].Code)
	assert.Equal(t, ActionPlaylistRebuild, risk[1].Code)

	noRisk := SelectActions(false)
	require.Len(t, noRisk, 1)
	assert.Equal(t, ActionNone, noRisk[0].Code)
}

func TestExecute_ChurnRisk(t *testing.T) {
	// intercept 0 -> probability 0.5, above the 0.35 default cutoff
	h := newTestHandler(t, writeTestArtifact(t, 0))

	output, err := h.Execute(context.Background(), &Input{UserID: "user-9", Features: testFeatures()})

	require.NoError(t, err)
	assert.Equal(t, "user-9", output.UserID)
	assert.InDelta(t, 0.5, output.Prediction.ChurnProbability, 1e-9)
	assert.True(t, output.Prediction.IsChurnRisk)
	assert.Equal(t, "test-v1", output.Prediction.ModelVersion)
	assert.InDelta(t, 0.35, output.Prediction.Threshold, 1e-9)
	assert.NotEmpty(t, output.Prediction.PredictionID)
	require.Len(t, output.Prediction.RecommendedActions, 2)
	assert.Equal(t, ActionDiscountOffer, output.Prediction.RecommendedActions[0].Code)
}

func TestExecute_NoChurnRisk(t *testing.T) {
	// intercept -3 -> probability ~0.047, below the cutoff
	h := newTestHandler(t, writeTestArtifact(t, -3))

	output, err := h.Execute(context.Background(), &Input{Features: testFeatures()})

	require.NoError(t, err)
	assert.InDelta(t, 1.0/(1.0+math.Exp(3)), output.Prediction.ChurnProbability, 1e-9)
	assert.False(t, output.Prediction.IsChurnRisk)
	require.Len(t, output.Prediction.RecommendedActions, 1)
	assert.Equal(t, ActionNone, output.Prediction.RecommendedActions[0].Code)
}

func TestExecute_ProbabilityReportedEvenAtBoundary(t *testing.T) {
	h := newTestHandler(t, writeTestArtifact(t, 0))

	output, err := h.Execute(context.Background(), &Input{Features: testFeatures()})

	require.NoError(t, err)
	// The probability is always part of the result, never just the flag.
	assert.Greater(t, output.Prediction.ChurnProbability, 0.0)
	assert.Less(t, output.Prediction.ChurnProbability, 1.0)
}

func TestExecute_MissingArtifact(t *testing.T) {
	h := newTestHandler(t, filepath.Join(t.TempDir(), "nope.json"))

	_, err := h.Execute(context.Background(), &Input{Features: testFeatures()})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeArtifactLoadFailed, commonerrors.CodeOf(err))
}

func TestExecute_UnknownCategoryFailsInference(t *testing.T) {
	h := newTestHandler(t, writeTestArtifact(t, 0))
	features := testFeatures()
	features.Country = "JP"

	_, err := h.Execute(context.Background(), &Input{Features: features})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInferenceFailed, commonerrors.CodeOf(err))
}

func TestExecute_SchemaDriftRejected(t *testing.T) {
	// Artifact trained on a schema with an extra column the serving side
	// does not produce.
	path := writeTestArtifact(t, 0)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var artifact map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &artifact))
	schema := append([]interface{}{}, toIfaceSlice(models.FeatureNames)...)
	artifact["schema"] = append(schema, "loyalty_years")
	coeffs := artifact["coefficients"].(map[string]interface{})
	coeffs["loyalty_years"] = 0.1

	data, err = json.Marshal(artifact)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	h := newTestHandler(t, path)
	_, err = h.Execute(context.Background(), &Input{Features: testFeatures()})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeFeatureSchemaMismatch, commonerrors.CodeOf(err))
}

func TestExecute_ArtifactFailureIsStickyAcrossJobs(t *testing.T) {
	h := newTestHandler(t, filepath.Join(t.TempDir(), "missing.json"))

	for i := 0; i < 3; i++ {
		_, err := h.Execute(context.Background(), &Input{Features: testFeatures()})
		require.Error(t, err)
		assert.Equal(t, commonerrors.ErrCodeArtifactLoadFailed, commonerrors.CodeOf(err))
	}
}

func toIfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
