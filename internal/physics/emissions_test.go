package physics

import (
	"math"
	"testing"
)

func TestCOEmissionRateZeroInBand(t *testing.T) {
	tn := GameTuning()
	for _, o2 := range []float64{1.5, 1.8, 2.0, 2.3, 2.5} {
		if rate := tn.COEmissionRate(o2); rate != 0 {
			t.Errorf("CO rate at O2 %.1f should be 0, got %f", o2, rate)
		}
	}
}

func TestCOEmissionRateMonotoneBelowBand(t *testing.T) {
	tn := GameTuning()
	prev := math.Inf(1)
	for o2 := 0.0; o2 <= tn.OptimalO2Min; o2 += 0.1 {
		rate := tn.COEmissionRate(o2)
		if rate > prev {
			t.Fatalf("CO rate increased from %f to %f as O2 rose to %.1f", prev, rate, o2)
		}
		prev = rate
	}
}

func TestCOEmissionRateMonotoneAboveBand(t *testing.T) {
	tn := GameTuning()
	prev := -1.0
	for o2 := tn.OptimalO2Max; o2 <= 10; o2 += 0.25 {
		rate := tn.COEmissionRate(o2)
		if rate < prev {
			t.Fatalf("CO rate decreased from %f to %f as O2 rose to %.2f", prev, rate, o2)
		}
		prev = rate
	}
}

func TestCOEmissionRateCapped(t *testing.T) {
	tn := GameTuning()
	if rate := tn.COEmissionRate(0); rate > tn.COCap {
		t.Errorf("CO rate %f exceeds cap %f", rate, tn.COCap)
	}
}

func TestCostImpactMaximalInBand(t *testing.T) {
	tn := GameTuning()
	fuel := 10.0

	inBand := tn.CostImpact(2.0, fuel)
	if inBand <= 0 {
		t.Errorf("in-band cost impact should be positive savings, got %f", inBand)
	}

	for _, o2 := range []float64{0, 0.5, 1.0, 3.0, 5.0, 8.0} {
		if got := tn.CostImpact(o2, fuel); got >= inBand {
			t.Errorf("cost impact at O2 %.1f (%f) should be below in-band %f", o2, got, inBand)
		}
	}
}

func TestCostImpactAsymmetric(t *testing.T) {
	tn := GameTuning()
	// One percent below the band must cost more than one percent above it.
	below := tn.CostImpact(tn.OptimalO2Min-1, 10)
	above := tn.CostImpact(tn.OptimalO2Max+1, 10)
	if below >= above {
		t.Errorf("fuel-rich penalty %f should exceed air-rich penalty %f", below, above)
	}
}

func TestCostImpactScalesWithFuelFlow(t *testing.T) {
	tn := GameTuning()
	half := tn.CostImpact(2.0, 5)
	full := tn.CostImpact(2.0, 10)
	if math.Abs(full-2*half) > 1e-9 {
		t.Errorf("cost impact should scale linearly with fuel flow: %f vs 2*%f", full, half)
	}
}

func TestCostImpactZeroInputs(t *testing.T) {
	tn := GameTuning()
	got := tn.CostImpact(0, 0)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("zero inputs produced non-finite cost impact %f", got)
	}
}

func TestCO2EmissionRate(t *testing.T) {
	tn := GameTuning()

	atStoich := tn.CO2EmissionRate(10, 14.7)
	want := tn.CO2PerFuel * 10 / 3600.0
	if math.Abs(atStoich-want) > 1e-12 {
		t.Errorf("CO2 rate at stoichiometric: got %f, want %f", atStoich, want)
	}

	offRatio := tn.CO2EmissionRate(10, 20)
	if offRatio >= atStoich {
		t.Errorf("off-ratio CO2 %f should be below stoichiometric %f", offRatio, atStoich)
	}

	if got := tn.CO2EmissionRate(0, 0); got != 0 {
		t.Errorf("zero fuel should emit zero CO2, got %f", got)
	}
}
