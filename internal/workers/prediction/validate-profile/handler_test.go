// internal/workers/prediction/validate-profile/handler_test.go
package validateprofile

import (
	"context"
	"testing"

	"churn-predictor/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfileMap() map[string]interface{} {
	return map[string]interface{}{
		"userId":               "user-42",
		"age":                  29,
		"gender":               "Female",
		"country":              "DE",
		"subscriptionType":     "Premium",
		"deviceType":           "Mobile",
		"listeningTimeMinutes": 60.0,
		"songsPlayedPerDay":    20,
		"skipRate":             0.3,
		"adsListenedPerWeek":   5,
		"offlineListening":     1,
	}
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestExecute_ValidProfile(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{Profile: validProfileMap()})

	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.Empty(t, output.ValidationErrors)
	require.NotNil(t, output.Profile)
	assert.Equal(t, "user-42", output.Profile.UserID)
	assert.Equal(t, 29, output.Profile.Age)
	assert.Equal(t, "Premium", output.Profile.SubscriptionType)
	assert.InDelta(t, 0.3, output.Profile.SkipRate, 1e-9)
}

func TestExecute_InvalidProfiles(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p map[string]interface{})
		field  string
	}{
		{
			name:   "age below minimum",
			mutate: func(p map[string]interface{}) { p["age"] = 17 },
			field:  "age",
		},
		{
			name:   "age above maximum",
			mutate: func(p map[string]interface{}) { p["age"] = 71 },
			field:  "age",
		},
		{
			name:   "unknown gender",
			mutate: func(p map[string]interface{}) { p["gender"] = "Unknown" },
			field:  "gender",
		},
		{
			name:   "unsupported country",
			mutate: func(p map[string]interface{}) { p["country"] = "BR" },
			field:  "country",
		},
		{
			name:   "unknown subscription plan",
			mutate: func(p map[string]interface{}) { p["subscriptionType"] = "Family" },
			field:  "subscriptionType",
		},
		{
			name:   "skip rate above one",
			mutate: func(p map[string]interface{}) { p["skipRate"] = 1.5 },
			field:  "skipRate",
		},
		{
			name:   "negative listening time",
			mutate: func(p map[string]interface{}) { p["listeningTimeMinutes"] = -10.0 },
			field:  "listeningTimeMinutes",
		},
		{
			name:   "negative songs per day",
			mutate: func(p map[string]interface{}) { p["songsPlayedPerDay"] = -1 },
			field:  "songsPlayedPerDay",
		},
		{
			name:   "offline listening outside flag domain",
			mutate: func(p map[string]interface{}) { p["offlineListening"] = 2 },
			field:  "offlineListening",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			profile := validProfileMap()
			tt.mutate(profile)

			output, err := h.Execute(context.Background(), &Input{Profile: profile})

			require.NoError(t, err)
			assert.False(t, output.IsValid)
			require.NotEmpty(t, output.ValidationErrors)
			found := false
			for _, ve := range output.ValidationErrors {
				if ve.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a validation error for field %s, got %v", tt.field, output.ValidationErrors)
		})
	}
}

func TestExecute_MissingRequiredField(t *testing.T) {
	h := newTestHandler(t)
	profile := validProfileMap()
	delete(profile, "skipRate")

	output, err := h.Execute(context.Background(), &Input{Profile: profile})

	require.NoError(t, err)
	assert.False(t, output.IsValid)
	assert.NotEmpty(t, output.ValidationErrors)
}

func TestExecute_UnknownExtraField(t *testing.T) {
	h := newTestHandler(t)
	profile := validProfileMap()
	profile["favoriteArtist"] = "anyone"

	output, err := h.Execute(context.Background(), &Input{Profile: profile})

	require.NoError(t, err)
	assert.False(t, output.IsValid)
}

func TestExecute_NilProfile(t *testing.T) {
	h := newTestHandler(t)

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.False(t, output.IsValid)
	require.Len(t, output.ValidationErrors, 1)
	assert.Equal(t, "profile", output.ValidationErrors[0].Field)
}

func TestExecute_UserIDIsOptional(t *testing.T) {
	h := newTestHandler(t)
	profile := validProfileMap()
	delete(profile, "userId")

	output, err := h.Execute(context.Background(), &Input{Profile: profile})

	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.Empty(t, output.Profile.UserID)
}

func TestExecute_SkipRateBoundariesInclusive(t *testing.T) {
	for _, skipRate := range []float64{0.0, 1.0} {
		h := newTestHandler(t)
		profile := validProfileMap()
		profile["skipRate"] = skipRate

		output, err := h.Execute(context.Background(), &Input{Profile: profile})

		require.NoError(t, err)
		assert.True(t, output.IsValid, "skipRate %v should be accepted", skipRate)
	}
}

func TestExecute_AgeBoundariesInclusive(t *testing.T) {
	for _, age := range []int{18, 70} {
		h := newTestHandler(t)
		profile := validProfileMap()
		profile["age"] = age

		output, err := h.Execute(context.Background(), &Input{Profile: profile})

		require.NoError(t, err)
		assert.True(t, output.IsValid, "age %d should be accepted", age)
	}
}
