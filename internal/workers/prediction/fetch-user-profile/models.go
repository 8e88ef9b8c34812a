// internal/workers/prediction/fetch-user-profile/models.go
package fetchuserprofile

import "churn-predictor/internal/models"

type Input struct {
	UserID string `json:"userId"`
	// Profile, when already present on the process instance, short-circuits
	// the lookup and passes through untouched.
	Profile *models.RawUserProfile `json:"profile,omitempty"`
}

type Output struct {
	Profile   *models.RawUserProfile `json:"profile"`
	CacheHit  bool                   `json:"cacheHit"`
	FromStore bool                   `json:"fromStore"`
}
