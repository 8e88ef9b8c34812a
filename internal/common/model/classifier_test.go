// internal/common/model/classifier_test.go
package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "churn-predictor/internal/common/errors"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	clf, err := Load(writeArtifact(t, testArtifact()))
	require.NoError(t, err)
	return clf
}

func TestValidateSchema_Exact(t *testing.T) {
	clf := testClassifier(t)

	err := clf.ValidateSchema(map[string]interface{}{
		"age":       30.0,
		"gender":    "Male",
		"skip_rate": 0.2,
	})

	assert.NoError(t, err)
}

func TestValidateSchema_MissingColumn(t *testing.T) {
	clf := testClassifier(t)

	err := clf.ValidateSchema(map[string]interface{}{
		"age":    30.0,
		"gender": "Male",
	})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeFeatureSchemaMismatch, commonerrors.CodeOf(err))
	assert.Contains(t, err.(*commonerrors.StandardError).Details, "missing columns: skip_rate")
}

func TestValidateSchema_UnexpectedColumn(t *testing.T) {
	clf := testClassifier(t)

	err := clf.ValidateSchema(map[string]interface{}{
		"age":        30.0,
		"gender":     "Male",
		"skip_rate":  0.2,
		"loyalty_yr": 4.0,
	})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeFeatureSchemaMismatch, commonerrors.CodeOf(err))
	assert.Contains(t, err.(*commonerrors.StandardError).Details, "unexpected columns: loyalty_yr")
}

func TestScoreProbability_KnownValues(t *testing.T) {
	clf := testClassifier(t)

	// Linear score: -1.5 + 0.01*40 + (-0.2)*1 + 2.5*0.6 = 0.2
	p, err := clf.ScoreProbability(map[string]interface{}{
		"age":       40.0,
		"gender":    "Female",
		"skip_rate": 0.6,
	})

	require.NoError(t, err)
	expected := 1.0 / (1.0 + math.Exp(-0.2))
	assert.InDelta(t, expected, p, 1e-9)
}

func TestScoreProbability_IntAccepted(t *testing.T) {
	clf := testClassifier(t)

	p, err := clf.ScoreProbability(map[string]interface{}{
		"age":       40,
		"gender":    "Female",
		"skip_rate": 0.6,
	})

	require.NoError(t, err)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 1.0)
}

func TestScoreProbability_UnknownCategory(t *testing.T) {
	clf := testClassifier(t)

	_, err := clf.ScoreProbability(map[string]interface{}{
		"age":       40.0,
		"gender":    "Nonbinary",
		"skip_rate": 0.6,
	})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInferenceFailed, commonerrors.CodeOf(err))
	assert.Contains(t, err.(*commonerrors.StandardError).Details, "gender")
}

func TestScoreProbability_WrongTypeForCategorical(t *testing.T) {
	clf := testClassifier(t)

	_, err := clf.ScoreProbability(map[string]interface{}{
		"age":       40.0,
		"gender":    7.0,
		"skip_rate": 0.6,
	})

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInferenceFailed, commonerrors.CodeOf(err))
}

func TestScoreProbability_ProbabilityBounds(t *testing.T) {
	clf := testClassifier(t)

	for _, skip := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		p, err := clf.ScoreProbability(map[string]interface{}{
			"age":       55.0,
			"gender":    "Other",
			"skip_rate": skip,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}
