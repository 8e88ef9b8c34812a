// internal/common/model/classifier.go
package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	commonerrors "churn-predictor/internal/common/errors"
)

// Classifier evaluates the loaded artifact against feature vectors. It is
// immutable after Load and safe for concurrent use.
type Classifier struct {
	artifact *Artifact
}

// ModelVersion returns the version string baked into the artifact.
func (c *Classifier) ModelVersion() string {
	return c.artifact.ModelVersion
}

// Schema returns the trained column names in training order.
func (c *Classifier) Schema() []string {
	return c.artifact.Schema
}

// ValidateSchema checks that the feature map carries exactly the trained
// columns. Missing and unexpected names are both reported; nothing is
// dropped, defaulted, or reordered on the caller's behalf.
func (c *Classifier) ValidateSchema(features map[string]interface{}) error {
	var missing, extra []string

	seen := make(map[string]bool, len(c.artifact.Schema))
	for _, col := range c.artifact.Schema {
		seen[col] = true
		if _, ok := features[col]; !ok {
			missing = append(missing, col)
		}
	}
	for name := range features {
		if !seen[name] {
			extra = append(extra, name)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(extra)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns: %s", strings.Join(extra, ", ")))
	}
	return commonerrors.NewFeatureSchemaMismatchError(strings.Join(parts, "; "))
}

// ScoreProbability returns the positive-class (churn) probability for one
// feature map. The map must already satisfy ValidateSchema. Categorical
// values are translated through the bundled encoders; a value the encoder
// has never seen fails the call rather than guessing.
func (c *Classifier) ScoreProbability(features map[string]interface{}) (float64, error) {
	score := c.artifact.Intercept

	for _, col := range c.artifact.Schema {
		raw, ok := features[col]
		if !ok {
			return 0, commonerrors.NewInferenceFailedError(fmt.Errorf("column %q absent at scoring time", col))
		}

		val, err := c.encode(col, raw)
		if err != nil {
			return 0, err
		}
		score += c.artifact.Coefficients[col] * val
	}

	return sigmoid(score), nil
}

func (c *Classifier) encode(col string, raw interface{}) (float64, error) {
	if enc, ok := c.artifact.Encoders[col]; ok {
		s, ok := raw.(string)
		if !ok {
			return 0, commonerrors.NewInferenceFailedError(
				fmt.Errorf("column %q expects a categorical string, got %T", col, raw))
		}
		val, known := enc[s]
		if !known {
			return 0, commonerrors.NewInferenceFailedError(
				fmt.Errorf("column %q has no encoding for value %q", col, s))
		}
		return val, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, commonerrors.NewInferenceFailedError(
			fmt.Errorf("column %q expects a numeric value, got %T", col, raw))
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
