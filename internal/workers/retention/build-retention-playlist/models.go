// internal/workers/retention/build-retention-playlist/models.go
package buildretentionplaylist

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	UserID         string       `json:"userId"`
	ExcludedGenres []string     `json:"excludedGenres"`
	GenreStats     []GenreStats `json:"genreStats"`
}

// GenreStats summarizes one genre's listening history for the user.
type GenreStats struct {
	Genre     string  `json:"genre"`
	Plays     int64   `json:"plays"`
	Skips     int64   `json:"skips"`
	SkipRatio float64 `json:"skipRatio"`
}
