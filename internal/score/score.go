// Package score ranks detected drift by urgency. Scoring is a pure
// function of the diff, its usage metadata, and a weight configuration, so
// identical inputs always produce identical scores.
package score

import (
	"fmt"
	"math"

	"github.com/docdrift/docdrift/internal/drift"
)

// weightEpsilon bounds the allowed deviation of the weight sum from 1.0.
const weightEpsilon = 0.001

// DefaultStalenessCapDays is the age at which documentation staleness
// saturates the staleness factor.
const DefaultStalenessCapDays = 90

// Weights configures the relative importance of each scoring factor. The
// weights must sum to 1.0 within a small epsilon; Validate enforces this
// before any scoring happens.
type Weights struct {
	CodeComplexity        float64 `json:"code_complexity" mapstructure:"code_complexity"`
	UsageFrequency        float64 `json:"usage_frequency" mapstructure:"usage_frequency"`
	ChangeMagnitude       float64 `json:"change_magnitude" mapstructure:"change_magnitude"`
	DocumentationCoverage float64 `json:"documentation_coverage" mapstructure:"documentation_coverage"`
	Staleness             float64 `json:"staleness" mapstructure:"staleness"`
	UserFeedback          float64 `json:"user_feedback" mapstructure:"user_feedback"`
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		CodeComplexity:        0.20,
		UsageFrequency:        0.25,
		ChangeMagnitude:       0.25,
		DocumentationCoverage: 0.15,
		Staleness:             0.10,
		UserFeedback:          0.05,
	}
}

// Sum returns the total of all factor weights.
func (w Weights) Sum() float64 {
	return w.CodeComplexity + w.UsageFrequency + w.ChangeMagnitude +
		w.DocumentationCoverage + w.Staleness + w.UserFeedback
}

// Validate fails fast on a misconfigured weight set. Silent renormalization
// would hide configuration mistakes, so a bad sum is an error.
func (w Weights) Validate() error {
	sum := w.Sum()
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("priority weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// UsageMetadata carries the project-level context a single diff cannot
// provide: how often the changed entity is referenced, how complex it is
// relative to the rest of the project, and how fresh its documentation is.
type UsageMetadata struct {
	// CallCount, ImportCount and InstantiationCount are textual reference
	// counts for the changed entity across the project.
	CallCount          int `json:"call_count"`
	ImportCount        int `json:"import_count"`
	InstantiationCount int `json:"instantiation_count"`

	// ProjectMaxUsage is the highest combined reference count observed for
	// any entity in the project. Zero means no usage data is available.
	ProjectMaxUsage int `json:"project_max_usage"`

	// Complexity is the changed entity's cyclomatic complexity;
	// ComplexityCeiling is the project maximum used for normalization.
	Complexity        int `json:"complexity"`
	ComplexityCeiling int `json:"complexity_ceiling"`

	// DocCoverage is the fraction (0..1) of the entity's surface that is
	// documented. Lower coverage scores more urgent.
	DocCoverage float64 `json:"doc_coverage"`

	// DaysSinceDocUpdate is the age of the most recent related
	// documentation update. StalenessCapDays saturates the factor;
	// zero means DefaultStalenessCapDays.
	DaysSinceDocUpdate float64 `json:"days_since_doc_update"`
	StalenessCapDays   float64 `json:"staleness_cap_days"`

	// UserFeedbackScore is an externally supplied 0-100 signal, for
	// example from doc-site feedback widgets. Zero when absent.
	UserFeedbackScore float64 `json:"user_feedback_score"`
}

// TotalUsage returns the combined reference count.
func (u UsageMetadata) TotalUsage() int {
	return u.CallCount + u.ImportCount + u.InstantiationCount
}

// Factors holds the normalized 0-100 value of each scoring dimension.
type Factors struct {
	CodeComplexity        float64 `json:"code_complexity"`
	UsageFrequency        float64 `json:"usage_frequency"`
	ChangeMagnitude       float64 `json:"change_magnitude"`
	DocumentationCoverage float64 `json:"documentation_coverage"`
	Staleness             float64 `json:"staleness"`
	UserFeedback          float64 `json:"user_feedback"`
}

// Recommendation buckets a score into an action urgency.
type Recommendation string

const (
	RecommendCritical Recommendation = "critical"
	RecommendHigh     Recommendation = "high"
	RecommendMedium   Recommendation = "medium"
	RecommendLow      Recommendation = "low"
)

// PriorityScore is the scorer's output for one diff.
type PriorityScore struct {
	Overall         float64        `json:"overall"`
	Factors         Factors        `json:"factors"`
	Recommendation  Recommendation `json:"recommendation"`
	SuggestedAction string         `json:"suggested_action"`

	// Confidence (0..1) estimates how safe an unattended documentation
	// edit for this diff would be. Severe changes need human judgment.
	Confidence float64 `json:"confidence"`
}

// Score computes the priority of a single diff. It validates weights and
// returns an error rather than scoring with a broken configuration.
func Score(diff drift.CodeDiff, usage UsageMetadata, weights Weights) (PriorityScore, error) {
	if err := weights.Validate(); err != nil {
		return PriorityScore{}, err
	}

	factors := Factors{
		CodeComplexity:        normalize(float64(usage.Complexity), float64(usage.ComplexityCeiling)),
		UsageFrequency:        normalize(float64(usage.TotalUsage()), float64(usage.ProjectMaxUsage)),
		ChangeMagnitude:       magnitudeOf(diff.Impact),
		DocumentationCoverage: clamp100((1.0 - usage.DocCoverage) * 100),
		Staleness:             stalenessFactor(usage),
		UserFeedback:          clamp100(usage.UserFeedbackScore),
	}

	overall := clamp100(
		factors.CodeComplexity*weights.CodeComplexity +
			factors.UsageFrequency*weights.UsageFrequency +
			factors.ChangeMagnitude*weights.ChangeMagnitude +
			factors.DocumentationCoverage*weights.DocumentationCoverage +
			factors.Staleness*weights.Staleness +
			factors.UserFeedback*weights.UserFeedback)

	return PriorityScore{
		Overall:         overall,
		Factors:         factors,
		Recommendation:  recommend(overall),
		SuggestedAction: suggestAction(diff, factors, weights),
		Confidence:      confidenceFor(diff),
	}, nil
}

func normalize(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return clamp100(value / max * 100)
}

func stalenessFactor(u UsageMetadata) float64 {
	capDays := u.StalenessCapDays
	if capDays <= 0 {
		capDays = DefaultStalenessCapDays
	}
	return normalize(u.DaysSinceDocUpdate, capDays)
}

func magnitudeOf(impact drift.Impact) float64 {
	switch impact {
	case drift.ImpactBreaking:
		return 100
	case drift.ImpactMajor:
		return 75
	case drift.ImpactMinor:
		return 45
	default:
		return 15
	}
}

func recommend(overall float64) Recommendation {
	switch {
	case overall >= 90:
		return RecommendCritical
	case overall >= 70:
		return RecommendHigh
	case overall >= 40:
		return RecommendMedium
	default:
		return RecommendLow
	}
}

// confidenceFor estimates how mechanical the corresponding documentation
// edit is. Patch-level additions are near-certain; breaking changes need
// review regardless of score.
func confidenceFor(diff drift.CodeDiff) float64 {
	switch diff.Impact {
	case drift.ImpactBreaking:
		return 0.5
	case drift.ImpactMajor:
		return 0.7
	case drift.ImpactMinor:
		return 0.85
	default:
		if diff.AutoApplicable {
			return 0.95
		}
		return 0.85
	}
}

// suggestAction derives action text from the factor contributing the most
// weighted signal to the score.
func suggestAction(diff drift.CodeDiff, f Factors, w Weights) string {
	type contribution struct {
		amount float64
		text   string
	}
	contributions := []contribution{
		{f.ChangeMagnitude * w.ChangeMagnitude, fmt.Sprintf("update documentation for the changed %s %q", diff.Category, diff.Name)},
		{f.UsageFrequency * w.UsageFrequency, fmt.Sprintf("prioritize %q: it is heavily referenced across the project", diff.Name)},
		{f.CodeComplexity * w.CodeComplexity, fmt.Sprintf("expand documentation for %q: high complexity warrants detailed docs", diff.Name)},
		{f.DocumentationCoverage * w.DocumentationCoverage, fmt.Sprintf("add missing documentation for %q", diff.Name)},
		{f.Staleness * w.Staleness, fmt.Sprintf("refresh stale documentation referencing %q", diff.Name)},
		{f.UserFeedback * w.UserFeedback, fmt.Sprintf("address reader feedback on documentation for %q", diff.Name)},
	}

	best := contributions[0]
	for _, c := range contributions[1:] {
		if c.amount > best.amount {
			best = c
		}
	}
	return best.text
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
