package match

import (
	"math"

	"github.com/shopspring/decimal"
)

// Fractions are the widths of the home/draw/away segments of a probability
// bar. They sum to 1 unless every input was missing or zero, in which case
// all three are 0.
type Fractions struct {
	Home float64
	Draw float64
	Away float64
}

// NormalizeProbabilities scales raw model scores into bar fractions. Missing,
// negative and non-finite scores count as 0.
func NormalizeProbabilities(home, draw, away *float64) Fractions {
	h := scoreOrZero(home)
	d := scoreOrZero(draw)
	a := scoreOrZero(away)

	total := h + d + a
	if total == 0 {
		total = 1
	}

	return Fractions{
		Home: h / total,
		Draw: d / total,
		Away: a / total,
	}
}

func (f Fractions) IsZero() bool {
	return f.Home == 0 && f.Draw == 0 && f.Away == 0
}

// Percent renders a probability in [0,1] as a percentage with one decimal,
// e.g. 0.4567 -> "45.7%".
func Percent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	return decimal.NewFromFloat(p).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func scoreOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	value := *v
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}
