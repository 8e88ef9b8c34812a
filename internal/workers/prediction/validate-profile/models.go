// internal/workers/prediction/validate-profile/models.go
package validateprofile

import "churn-predictor/internal/models"

type Input struct {
	Profile map[string]interface{} `json:"profile"`
}

type Output struct {
	IsValid          bool                   `json:"isValid"`
	Profile          *models.RawUserProfile `json:"profile,omitempty"`
	ValidationErrors []ValidationError      `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// profileSchema is the JSON-schema document the raw profile is checked
// against. Enum sets and age bounds mirror the categories and ranges the
// classifier was trained on.
func profileSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"age", "gender", "country", "subscriptionType", "deviceType",
			"listeningTimeMinutes", "songsPlayedPerDay", "skipRate",
			"adsListenedPerWeek", "offlineListening",
		},
		"properties": map[string]interface{}{
			"userId": map[string]interface{}{
				"type": "string",
			},
			"age": map[string]interface{}{
				"type":    "integer",
				"minimum": models.MinAge,
				"maximum": models.MaxAge,
			},
			"gender": map[string]interface{}{
				"type": "string",
				"enum": models.Genders,
			},
			"country": map[string]interface{}{
				"type": "string",
				"enum": models.Countries,
			},
			"subscriptionType": map[string]interface{}{
				"type": "string",
				"enum": models.SubscriptionTypes,
			},
			"deviceType": map[string]interface{}{
				"type": "string",
				"enum": models.DeviceTypes,
			},
			"listeningTimeMinutes": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
			},
			"songsPlayedPerDay": map[string]interface{}{
				"type":    "integer",
				"minimum": 0,
			},
			"skipRate": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"adsListenedPerWeek": map[string]interface{}{
				"type":    "integer",
				"minimum": 0,
			},
			"offlineListening": map[string]interface{}{
				"type": "integer",
				"enum": []interface{}{0, 1},
			},
		},
	}
}
