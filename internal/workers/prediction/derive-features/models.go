// internal/workers/prediction/derive-features/models.go
package derivefeatures

import "churn-predictor/internal/models"

type Input struct {
	Profile *models.RawUserProfile `json:"profile"`
}

type Output struct {
	Features models.FeatureVector `json:"features"`
}
