package physics

import "math"

// CostImpact returns the per-second dollar impact of running at the given
// excess O₂ and fuel flow, as savings against the baseline cost rate:
// positive inside the optimal band, negative outside it. The penalty for
// running fuel-rich (below the band) grows faster than the air-rich penalty
// above it.
func (tn *Tuning) CostImpact(o2, fuelFlow float64) float64 {
	mult := tn.CostMultiplier
	switch {
	case o2 < tn.OptimalO2Min:
		mult = 1 + tn.BelowBandSlope*(tn.OptimalO2Min-o2)
	case o2 > tn.OptimalO2Max:
		mult = 1 + tn.AboveBandSlope*(o2-tn.OptimalO2Max)
	}

	scale := fuelFlow / math.Max(tn.ReferenceFuelFlow, fuelEpsilon)
	baseline := tn.BaselineCostRate * scale
	actual := baseline * mult
	return baseline - actual
}

// COEmissionRate returns the carbon monoxide emission rate in kg/s for the
// given excess O₂: zero inside the optimal band, exponential growth (capped)
// as the mix goes fuel-rich below it, and a small linear term above it.
func (tn *Tuning) COEmissionRate(o2 float64) float64 {
	switch {
	case o2 < tn.OptimalO2Min:
		rate := tn.COCoeffK1 * math.Exp(tn.COCoeffK2*(tn.OptimalO2Min-o2))
		if rate > tn.COCap {
			rate = tn.COCap
		}
		return rate
	case o2 > tn.OptimalO2Max:
		return tn.COLinearSlope * (o2 - tn.OptimalO2Max)
	default:
		return 0
	}
}

// CO2EmissionRate returns the carbon dioxide emission rate in kg/s:
// proportional to fuel burned, scaled by combustion efficiency so off-ratio
// operation produces less usable CO₂ under the model's simplification.
func (tn *Tuning) CO2EmissionRate(fuelFlow, airFuelRatio float64) float64 {
	fuelPerS := fuelFlow / 3600.0
	return tn.CO2PerFuel * fuelPerS * tn.Efficiency(airFuelRatio)
}
