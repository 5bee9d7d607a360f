package score

import (
	"testing"

	"github.com/docdrift/docdrift/internal/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST PLAN: Priority Scorer
//
// Score is a pure function of (diff, usage, weights). Factors normalize to
// 0-100 independently and the weighted sum is clamped to [0,100].
//
// Test Cases:
// 1. Default weights sum to 1.0 and validate
// 2. Misconfigured weights fail fast with a descriptive error
// 3. Overall stays within [0,100] for extreme factor inputs
// 4. Breaking + heavily-used + undocumented + 60-day-stale scores critical
// 5. Recommendation bucket boundaries (90/70/40)
// 6. Missing normalization ceilings yield zero factors, not NaN
// 7. Suggested action tracks the dominant weighted factor
// 8. Confidence degrades with impact severity
// 9. Determinism: same inputs, same score

func breakingDiff(name string) drift.CodeDiff {
	return drift.CodeDiff{
		Type:     drift.DiffModified,
		Category: drift.CategoryFunction,
		Name:     name,
		Impact:   drift.ImpactBreaking,
	}
}

// Test 1: default configuration validates.
func TestDefaultWeights(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.NoError(t, w.Validate())
}

// Test 2: a bad weight sum is rejected before any scoring.
func TestWeights_FailFast(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	w.Staleness = 0.5 // sum now 1.4

	require.Error(t, w.Validate())

	_, err := Score(breakingDiff("f"), UsageMetadata{}, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

// Test 3: overall is clamped for any factor inputs.
func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	usage := UsageMetadata{
		CallCount:          1000,
		ProjectMaxUsage:    10, // over-unity usage ratio, must clamp
		Complexity:         500,
		ComplexityCeiling:  5,
		DocCoverage:        -1, // nonsense input, still clamped
		DaysSinceDocUpdate: 9000,
		UserFeedbackScore:  250,
	}

	s, err := Score(breakingDiff("f"), usage, DefaultWeights())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Overall, 0.0)
	assert.LessOrEqual(t, s.Overall, 100.0)
	assert.LessOrEqual(t, s.Factors.UsageFrequency, 100.0)
	assert.LessOrEqual(t, s.Factors.DocumentationCoverage, 100.0)
}

// Test 4: the canonical worst case. A breaking change to a maximally used,
// maximally complex, completely undocumented entity whose docs are 60 days
// old must land in the critical bucket.
func TestScore_CriticalScenario(t *testing.T) {
	t.Parallel()

	usage := UsageMetadata{
		CallCount:          40,
		ImportCount:        10,
		ProjectMaxUsage:    50,
		Complexity:         20,
		ComplexityCeiling:  20,
		DocCoverage:        0,
		DaysSinceDocUpdate: 60,
	}

	s, err := Score(breakingDiff("f"), usage, DefaultWeights())
	require.NoError(t, err)

	// 100*.20 + 100*.25 + 100*.25 + 100*.15 + 66.7*.10 ≈ 91.7
	assert.GreaterOrEqual(t, s.Overall, 90.0)
	assert.Equal(t, RecommendCritical, s.Recommendation)
}

// Test 5: bucket boundaries.
func TestRecommendationBuckets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RecommendCritical, recommend(90))
	assert.Equal(t, RecommendHigh, recommend(89.9))
	assert.Equal(t, RecommendHigh, recommend(70))
	assert.Equal(t, RecommendMedium, recommend(69.9))
	assert.Equal(t, RecommendMedium, recommend(40))
	assert.Equal(t, RecommendLow, recommend(39.9))
	assert.Equal(t, RecommendLow, recommend(0))
}

// Test 6: zero ceilings mean "no data", not division by zero.
func TestScore_NoNormalizationData(t *testing.T) {
	t.Parallel()

	s, err := Score(breakingDiff("f"), UsageMetadata{DocCoverage: 1}, DefaultWeights())
	require.NoError(t, err)
	assert.Zero(t, s.Factors.CodeComplexity)
	assert.Zero(t, s.Factors.UsageFrequency)
	assert.Zero(t, s.Factors.DocumentationCoverage)
	assert.Zero(t, s.Factors.Staleness)
}

// Test 7: the dominant factor drives the suggested action text.
func TestScore_SuggestedAction(t *testing.T) {
	t.Parallel()

	// Staleness dominates: patch-level change, fully documented, unused,
	// but very old docs.
	usage := UsageMetadata{
		DocCoverage:        1,
		DaysSinceDocUpdate: 400,
	}
	diff := drift.CodeDiff{
		Type:     drift.DiffAdded,
		Category: drift.CategoryFunction,
		Name:     "helper",
		Impact:   drift.ImpactPatch,
	}
	weights := Weights{Staleness: 0.9, ChangeMagnitude: 0.1}

	s, err := Score(diff, usage, weights)
	require.NoError(t, err)
	assert.Contains(t, s.SuggestedAction, "stale")
	assert.Contains(t, s.SuggestedAction, "helper")
}

// Test 8: severe changes are never high-confidence auto-edits.
func TestScore_Confidence(t *testing.T) {
	t.Parallel()

	mk := func(impact drift.Impact, auto bool) drift.CodeDiff {
		return drift.CodeDiff{Impact: impact, AutoApplicable: auto}
	}

	get := func(d drift.CodeDiff) float64 {
		s, err := Score(d, UsageMetadata{}, DefaultWeights())
		require.NoError(t, err)
		return s.Confidence
	}

	patch := get(mk(drift.ImpactPatch, true))
	minor := get(mk(drift.ImpactMinor, false))
	major := get(mk(drift.ImpactMajor, false))
	breaking := get(mk(drift.ImpactBreaking, false))

	assert.Greater(t, patch, minor)
	assert.Greater(t, minor, major)
	assert.Greater(t, major, breaking)
	assert.GreaterOrEqual(t, patch, 0.9)
	assert.Less(t, breaking, 0.8) // below the default auto-apply threshold
}

// Test 9: scoring is deterministic.
func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	usage := UsageMetadata{
		CallCount:          7,
		ProjectMaxUsage:    20,
		Complexity:         4,
		ComplexityCeiling:  12,
		DocCoverage:        0.4,
		DaysSinceDocUpdate: 30,
	}
	first, err := Score(breakingDiff("f"), usage, DefaultWeights())
	require.NoError(t, err)
	second, err := Score(breakingDiff("f"), usage, DefaultWeights())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
