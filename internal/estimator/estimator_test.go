package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Diegoproggramer/CivilCity/internal/content"
)

func calc() *Calculator {
	return New(content.EstimatorParams{
		BaseCostPerMeter:  12_000_000,
		QualityMultiplier: map[string]float64{"economic": 1, "standard": 1.4, "luxury": 2.2},
	})
}

func TestEstimate(t *testing.T) {
	est, err := calc().Estimate(100, "standard")
	require.NoError(t, err)
	require.InDelta(t, 100*12_000_000*1.4, est.Cost, 0.001)
	require.Equal(t, 1.4, est.Multiplier)
}

func TestEstimateRejectsInvalidArea(t *testing.T) {
	for _, area := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := calc().Estimate(area, "economic")
		require.ErrorIs(t, err, ErrInvalidArea)
	}
}

func TestEstimateRejectsUnknownQuality(t *testing.T) {
	_, err := calc().Estimate(10, "palace")
	require.ErrorIs(t, err, ErrUnknownQuality)
}

func TestQualitiesOrderedByMultiplier(t *testing.T) {
	require.Equal(t, []string{"economic", "standard", "luxury"}, calc().Qualities())
}

func TestFromDocument(t *testing.T) {
	_, err := FromDocument(content.New(content.Source{}))
	require.ErrorIs(t, err, ErrNoParameters)

	c, err := FromDocument(content.New(content.Source{EstimatorParams: &content.EstimatorParams{
		BaseCostPerMeter:  1,
		QualityMultiplier: map[string]float64{"x": 3},
	}}))
	require.NoError(t, err)
	est, err := c.Estimate(2, "x")
	require.NoError(t, err)
	require.Equal(t, 6.0, est.Cost)
}
