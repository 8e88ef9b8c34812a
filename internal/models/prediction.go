// internal/models/prediction.go
package models

// Training-time column names, in training order. The classifier artifact
// carries the same list; the two must agree field-for-field or scoring is
// refused with a schema mismatch.
var FeatureNames = []string{
	"age",
	"gender",
	"country",
	"subscription_type",
	"device_type",
	"listening_time",
	"songs_played_per_day",
	"skip_rate",
	"ads_listened_per_week",
	"offline_listening",
	"ad_burden",
	"satisfaction_score",
	"time_per_song",
}

// DerivedFeatures are computed from the raw profile, never user-supplied.
// The formulas live in the derive-features worker and must reproduce the
// training-time feature engineering exactly.
type DerivedFeatures struct {
	AdBurden          float64 `json:"adBurden"`
	SatisfactionScore float64 `json:"satisfactionScore"`
	TimePerSong       float64 `json:"timePerSong"`
}

// FeatureVector is the full model input: raw attributes plus derived ratios.
type FeatureVector struct {
	RawUserProfile
	DerivedFeatures
}

// Fields returns the vector keyed by the training-time column names.
// Categorical attributes stay as strings; the classifier's bundled encoders
// translate them.
func (v FeatureVector) Fields() map[string]interface{} {
	return map[string]interface{}{
		"age":                   float64(v.Age),
		"gender":                v.Gender,
		"country":               v.Country,
		"subscription_type":     v.SubscriptionType,
		"device_type":           v.DeviceType,
		"listening_time":        v.ListeningTimeMinutes,
		"songs_played_per_day":  float64(v.SongsPlayedPerDay),
		"skip_rate":             v.SkipRate,
		"ads_listened_per_week": float64(v.AdsListenedPerWeek),
		"offline_listening":     float64(v.OfflineListening),
		"ad_burden":             v.AdBurden,
		"satisfaction_score":    v.SatisfactionScore,
		"time_per_song":         v.TimePerSong,
	}
}

// RetentionAction is one recommended follow-up for a scored user.
type RetentionAction struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// PredictionResult is the outcome of one scoring request. ChurnProbability is
// always populated when scoring succeeds, even at the threshold boundary.
type PredictionResult struct {
	PredictionID       string            `json:"predictionId"`
	ModelVersion       string            `json:"modelVersion,omitempty"`
	ChurnProbability   float64           `json:"churnProbability"`
	Threshold          float64           `json:"threshold"`
	IsChurnRisk        bool              `json:"isChurnRisk"`
	RecommendedActions []RetentionAction `json:"recommendedActions"`
}
