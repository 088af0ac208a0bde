package reporting

import (
	"gonum.org/v1/gonum/stat/distuv"
)

const significanceLevel = 0.05

// applySignificance fills the chi-squared fields of an ABTestResult from its
// variant counts.
//
// The contingency table is 2 x k: converted / not-converted per variant, with
// the null hypothesis that conversion rate is identical across variants. The
// p-value comes from the chi-squared distribution with (variants - 1) degrees
// of freedom. Variants with zero total carry no evidence and are excluded;
// fewer than two remaining variants leaves the statistic fields nil.
func applySignificance(out *ABTestResult) {
	type observed struct {
		idx       int
		completed int
		total     int
	}
	var obs []observed
	for i, v := range out.Variants {
		if v.Total == 0 {
			continue
		}
		obs = append(obs, observed{idx: i, completed: v.Completed, total: v.Total})
	}
	if len(obs) < 2 {
		return
	}

	grandTotal := 0
	grandCompleted := 0
	for _, o := range obs {
		grandTotal += o.total
		grandCompleted += o.completed
	}

	// All converted or none converted: one row of the table is empty, the
	// rates are trivially identical and the statistic degenerates to zero.
	var chi2 float64
	if grandCompleted > 0 && grandCompleted < grandTotal {
		pNull := float64(grandCompleted) / float64(grandTotal)
		for _, o := range obs {
			expConv := pNull * float64(o.total)
			expMiss := (1 - pNull) * float64(o.total)
			dConv := float64(o.completed) - expConv
			dMiss := float64(o.total-o.completed) - expMiss
			chi2 += dConv * dConv / expConv
			chi2 += dMiss * dMiss / expMiss
		}
	}

	df := float64(len(obs) - 1)
	p := distuv.ChiSquared{K: df}.Survival(chi2)

	out.ChiSquared = &chi2
	out.PValue = &p
	out.IsSignificant = p < significanceLevel

	if out.IsSignificant {
		out.Winner = pickWinner(out.Variants)
	}
}

// pickWinner returns the name of the variant with the strictly highest
// conversion rate, or nil on a tie at the top.
func pickWinner(variants []VariantResult) *string {
	bestIdx := -1
	var bestRate float64
	tied := false
	for i, v := range variants {
		if v.ConversionRate == nil {
			continue
		}
		switch {
		case bestIdx == -1 || *v.ConversionRate > bestRate:
			bestIdx = i
			bestRate = *v.ConversionRate
			tied = false
		case *v.ConversionRate == bestRate:
			tied = true
		}
	}
	if bestIdx == -1 || tied {
		return nil
	}
	return &variants[bestIdx].Name
}
