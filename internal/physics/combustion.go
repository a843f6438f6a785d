package physics

import "math"

// fuelEpsilon floors fuel-flow denominators so a closed fuel valve cannot
// divide by zero.
const fuelEpsilon = 0.1

// Efficiency returns the combustion efficiency for an air/fuel ratio: a
// Gaussian centered on the stoichiometric ratio, 1 at the optimum and
// falling off symmetrically with width Sigma.
func (tn *Tuning) Efficiency(airFuelRatio float64) float64 {
	d := airFuelRatio - tn.StoichAFR
	return math.Exp(-(d * d) / (2 * tn.Sigma * tn.Sigma))
}

// NextTemperature computes the furnace temperature after one time step from
// a first-order heat balance: combustion heat in, losses to the environment
// and to incoming material out, divided by the furnace thermal mass.
// fuelFlow, airFlow and inflowRate are hourly rates; noise is an additive
// °C term (pass 0 for deterministic evaluation). The result is clamped to
// ambient and rounded to one decimal.
func (tn *Tuning) NextTemperature(fuelFlow, airFlow, currentTemp, inflowTemp, inflowRate, noise float64) float64 {
	return round1(tn.RawNextTemperature(fuelFlow, airFlow, currentTemp, inflowTemp, inflowRate, noise))
}

// RawNextTemperature is NextTemperature without the one-decimal display
// rounding. Noise-free integrations (sweeps, prediction ground truth) use
// it so sub-0.05 °C per-tick changes are not rounded away.
func (tn *Tuning) RawNextTemperature(fuelFlow, airFlow, currentTemp, inflowTemp, inflowRate, noise float64) float64 {
	fuelPerS := fuelFlow / 3600.0
	inflowPerS := inflowRate / 3600.0

	afr := airFlow / math.Max(fuelFlow, fuelEpsilon)
	efficiency := tn.Efficiency(afr)

	heatGained := fuelPerS * tn.FuelEnergy * efficiency * tn.TimeStep
	envLoss := tn.HeatLossCoeff * (currentTemp - tn.AmbientTemp) * tn.TimeStep
	inflowLoss := tn.InletCoeff * inflowPerS * (currentTemp - inflowTemp) * tn.TimeStep

	tempChange := (heatGained - envLoss - inflowLoss) / (tn.FurnaceMass * tn.SpecificHeat)

	next := currentTemp + tempChange + noise
	if next < tn.AmbientTemp {
		next = tn.AmbientTemp
	}
	return next
}

// NextExcessO2 computes the flue-gas excess oxygen percentage. The fraction
// of combustion heat not transferred to the flame-temperature reference maps
// linearly onto the atmospheric O₂ ceiling. noise is an additive percentage
// term (pass 0 for deterministic evaluation). The result is floored at 0
// and rounded to one decimal.
func (tn *Tuning) NextExcessO2(airFuelRatio, fuelFlow, currentTemp, noise float64) float64 {
	return round1(tn.RawNextExcessO2(airFuelRatio, fuelFlow, currentTemp, noise))
}

// RawNextExcessO2 is NextExcessO2 without the one-decimal rounding.
func (tn *Tuning) RawNextExcessO2(airFuelRatio, fuelFlow, currentTemp, noise float64) float64 {
	fuelPerS := fuelFlow / 3600.0
	efficiency := tn.Efficiency(airFuelRatio)

	heatAvailable := fuelPerS * tn.FuelEnergy * efficiency
	heatTransferred := tn.TransferCoeff * tn.TransferArea * (tn.FlameTemp - currentTemp)

	fracLost := 1 - heatTransferred/math.Max(heatAvailable, 1e-6)
	if fracLost < 0 {
		fracLost = 0
	}

	o2 := fracLost*tn.AtmosphericO2 + noise
	if o2 < 0 {
		o2 = 0
	}
	return o2
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
