// internal/workers/prediction/score-churn/decision.go
package scorechurn

import "churn-predictor/internal/models"

// Retention action codes. Downstream workers dispatch on these.
const (
	ActionDiscountOffer   = "discount-offer"
	ActionPlaylistRebuild = "playlist-rebuild"
	ActionNone            = "no-action"
)

var (
	churnRiskActions = []models.RetentionAction{
		{Code: ActionDiscountOffer, Description: "Push a 3-month discount coupon"},
		{Code: ActionPlaylistRebuild, Description: "Build a personalized playlist excluding high-skip genres"},
	}
	noRiskActions = []models.RetentionAction{
		{Code: ActionNone, Description: "No retention action required"},
	}
)

// IsChurnRisk applies the inclusive threshold comparison: a probability
// exactly at the cutoff counts as churn-risk.
func IsChurnRisk(probability, threshold float64) bool {
	return probability >= threshold
}

// SelectActions returns the recommended follow-ups for a decision. The
// mapping is a static lookup; action order is fixed.
func SelectActions(isChurnRisk bool) []models.RetentionAction {
	if isChurnRisk {
		return churnRiskActions
	}
	return noRiskActions
}
