// Package estimator computes rough construction costs from the parameters
// published in the content document.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Diegoproggramer/CivilCity/internal/content"
)

var (
	ErrInvalidArea    = errors.New("estimator: area must be a positive number")
	ErrUnknownQuality = errors.New("estimator: unknown quality")
	ErrNoParameters   = errors.New("estimator: document has no estimator parameters")
)

// Estimate is the result of one calculation.
type Estimate struct {
	Area       float64
	Quality    string
	Multiplier float64
	Cost       float64
}

// Calculator wraps one set of estimator parameters.
type Calculator struct {
	params content.EstimatorParams
}

// FromDocument returns a Calculator for doc, or ErrNoParameters.
func FromDocument(doc *content.Document) (*Calculator, error) {
	params, ok := doc.Estimator()
	if !ok {
		return nil, ErrNoParameters
	}
	return &Calculator{params: params}, nil
}

// New returns a Calculator over params.
func New(params content.EstimatorParams) *Calculator {
	return &Calculator{params: params}
}

// Qualities lists the known quality levels, sorted by multiplier then name.
func (c *Calculator) Qualities() []string {
	out := make([]string, 0, len(c.params.QualityMultiplier))
	for q := range c.params.QualityMultiplier {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := c.params.QualityMultiplier[out[i]], c.params.QualityMultiplier[out[j]]
		if mi == mj {
			return out[i] < out[j]
		}
		return mi < mj
	})
	return out
}

// Estimate computes area * base cost per meter * quality multiplier.
func (c *Calculator) Estimate(area float64, quality string) (Estimate, error) {
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return Estimate{}, ErrInvalidArea
	}
	quality = strings.TrimSpace(quality)
	mult, ok := c.params.QualityMultiplier[quality]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %q", ErrUnknownQuality, quality)
	}
	return Estimate{
		Area:       area,
		Quality:    quality,
		Multiplier: mult,
		Cost:       area * c.params.BaseCostPerMeter * mult,
	}, nil
}
