// internal/common/model/artifact.go

// Package model loads and evaluates the serialized churn classifier bundle.
// The bundle is produced offline by the training pipeline and is treated as
// opaque data here: this package never fits, tunes, or mutates it.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	commonerrors "churn-predictor/internal/common/errors"
)

// Artifact is the serialized classifier bundle: the trained column schema,
// the fitted categorical encoders, and the logistic estimator itself.
type Artifact struct {
	ModelVersion string                        `json:"modelVersion"`
	Schema       []string                      `json:"schema"`
	Encoders     map[string]map[string]float64 `json:"encoders"`
	Coefficients map[string]float64            `json:"coefficients"`
	Intercept    float64                       `json:"intercept"`
}

// Load reads and parses the artifact at path. Any failure, missing file,
// unreadable file, or malformed content, surfaces as ARTIFACT_LOAD_FAILED.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, commonerrors.NewArtifactLoadFailedError(path, err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, commonerrors.NewArtifactLoadFailedError(path, err)
	}

	if err := art.validate(); err != nil {
		return nil, commonerrors.NewArtifactLoadFailedError(path, err)
	}

	return &Classifier{artifact: &art}, nil
}

func (a *Artifact) validate() error {
	if len(a.Schema) == 0 {
		return fmt.Errorf("artifact schema is empty")
	}
	for _, col := range a.Schema {
		_, hasCoef := a.Coefficients[col]
		_, hasEnc := a.Encoders[col]
		if !hasCoef {
			return fmt.Errorf("artifact missing coefficient for column %q", col)
		}
		if isCategorical(col) && !hasEnc {
			return fmt.Errorf("artifact missing encoder for categorical column %q", col)
		}
	}
	return nil
}

func isCategorical(col string) bool {
	switch col {
	case "gender", "country", "subscription_type", "device_type":
		return true
	}
	return false
}

// Holder caches a single Classifier for the process lifetime. The artifact is
// read at most once; the outcome, success or failure, is cached and returned
// to every subsequent caller. A load failure therefore stays fatal for all
// predictions served by this process.
type Holder struct {
	path string

	once sync.Once
	clf  *Classifier
	err  error
}

func NewHolder(path string) *Holder {
	return &Holder{path: path}
}

// Get returns the cached classifier, loading it on first call.
func (h *Holder) Get() (*Classifier, error) {
	h.once.Do(func() {
		h.clf, h.err = Load(h.path)
	})
	return h.clf, h.err
}

// Warm forces the load up front so a broken artifact is reported at startup
// rather than on the first job.
func (h *Holder) Warm() error {
	_, err := h.Get()
	return err
}
