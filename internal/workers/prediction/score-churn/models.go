// internal/workers/prediction/score-churn/models.go
package scorechurn

import "churn-predictor/internal/models"

type Input struct {
	UserID   string               `json:"userId,omitempty"`
	Features models.FeatureVector `json:"features"`
}

type Output struct {
	UserID     string                  `json:"userId,omitempty"`
	Prediction models.PredictionResult `json:"prediction"`
}
