// internal/models/profile.go
package models

// Enumerated domains for the categorical profile attributes. These mirror the
// categories the classifier's encoders were fitted on; values outside these
// sets are rejected at the validation boundary.
var (
	Genders           = []string{"Male", "Female", "Other"}
	Countries         = []string{"US", "UK", "DE", "FR", "CA", "IN"}
	SubscriptionTypes = []string{"Free", "Premium", "Student"}
	DeviceTypes       = []string{"Mobile", "Web", "Desktop"}
)

// Age bounds accepted by the input surface.
const (
	MinAge = 18
	MaxAge = 70
)

// RawUserProfile holds the activity attributes collected per prediction
// request. All fields are required; range and enum constraints are enforced
// by the validate-profile worker before the profile reaches scoring.
type RawUserProfile struct {
	UserID               string  `json:"userId,omitempty"`
	Age                  int     `json:"age"`
	Gender               string  `json:"gender"`
	Country              string  `json:"country"`
	SubscriptionType     string  `json:"subscriptionType"`
	DeviceType           string  `json:"deviceType"`
	ListeningTimeMinutes float64 `json:"listeningTimeMinutes"`
	SongsPlayedPerDay    int     `json:"songsPlayedPerDay"`
	SkipRate             float64 `json:"skipRate"`
	AdsListenedPerWeek   int     `json:"adsListenedPerWeek"`
	OfflineListening     int     `json:"offlineListening"`
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// IsKnownGender reports whether the value is one of the trained categories.
func IsKnownGender(v string) bool { return contains(Genders, v) }

// IsKnownCountry reports whether the value is one of the supported countries.
func IsKnownCountry(v string) bool { return contains(Countries, v) }

// IsKnownSubscriptionType reports whether the value is a supported plan.
func IsKnownSubscriptionType(v string) bool { return contains(SubscriptionTypes, v) }

// IsKnownDeviceType reports whether the value is a supported device category.
func IsKnownDeviceType(v string) bool { return contains(DeviceTypes, v) }
