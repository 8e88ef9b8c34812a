// internal/workers/retention/send-retention-offer/models.go
package sendretentionoffer

import "churn-predictor/internal/models"

type Input struct {
	UserID      string                  `json:"userId"`
	Email       string                  `json:"email,omitempty"`
	EndpointArn string                  `json:"endpointArn,omitempty"`
	Prediction  models.PredictionResult `json:"prediction"`
}

type Output struct {
	OfferID  string   `json:"offerId,omitempty"`
	Status   string   `json:"status"` // "sent", "skipped", "disabled"
	Channels []string `json:"channels"`
	SentAt   string   `json:"sentAt,omitempty"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

const (
	offerSubject = "A thank-you from us: 3 months at a discount"
	offerBody    = "We appreciate you listening with us. Here is a 3-month discount coupon on your subscription, applied the next time you open the app."
)
