package physics

import (
	"math"
	"testing"
)

func TestEfficiencyPeaksAtStoichiometric(t *testing.T) {
	tn := GameTuning()

	if eff := tn.Efficiency(14.7); math.Abs(eff-1.0) > 1e-12 {
		t.Errorf("efficiency at stoichiometric ratio: got %f, want 1", eff)
	}

	peak := tn.Efficiency(tn.StoichAFR)
	for _, afr := range []float64{0.6, 5, 10, 14, 15.5, 20, 25} {
		if eff := tn.Efficiency(afr); eff >= peak {
			t.Errorf("efficiency(%f) = %f should be below peak %f", afr, eff, peak)
		}
	}
}

func TestNextTemperatureHeatGainMaxAtStoich(t *testing.T) {
	tn := GameTuning()
	fuel := 10.0

	best := tn.RawNextTemperature(fuel, fuel*tn.StoichAFR, 300, 150, 100, 0)
	for _, afr := range []float64{10, 12, 17, 20} {
		got := tn.RawNextTemperature(fuel, fuel*afr, 300, 150, 100, 0)
		if got >= best {
			t.Errorf("AFR %f produced heat gain %f not below stoichiometric %f", afr, got, best)
		}
	}
}

func TestNextTemperatureAmbientFloor(t *testing.T) {
	tn := GameTuning()

	tests := []struct {
		name                 string
		fuel, air, temp      float64
		inflowTemp, inflowRt float64
		noise                float64
	}{
		{"no_fuel_cold_start", 0, 0, 25, 100, 200, 0},
		{"no_fuel_negative_noise", 0, 0, 25, 100, 200, -1},
		{"off_ratio_hot", 1, 25, 26, 100, 200, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tn.NextTemperature(tt.fuel, tt.air, tt.temp, tt.inflowTemp, tt.inflowRt, tt.noise)
			if got < tn.AmbientTemp {
				t.Errorf("temperature %f below ambient floor %f", got, tn.AmbientTemp)
			}
		})
	}
}

func TestNextTemperatureZeroFuelNoPanic(t *testing.T) {
	tn := GameTuning()
	got := tn.NextTemperature(0, 147, 300, 150, 100, 0)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("zero fuel flow produced non-finite temperature %f", got)
	}
}

func TestNextExcessO2Floor(t *testing.T) {
	tn := GameTuning()

	// High heat transfer relative to combustion heat drives fracLost to 0.
	got := tn.NextExcessO2(14.7, 0.5, 25, -0.2)
	if got < 0 {
		t.Errorf("excess O2 %f below zero floor", got)
	}

	got = tn.NextExcessO2(0, 0, 25, -0.2)
	if got < 0 {
		t.Errorf("excess O2 %f below zero floor for zero inputs", got)
	}
}

func TestNextExcessO2Ceiling(t *testing.T) {
	tn := GameTuning()
	// Below flame temperature the lost fraction stays under 1, so O2 stays
	// under the atmospheric ceiling.
	got := tn.NextExcessO2(25, 20, 1790, 0)
	if got > tn.AtmosphericO2 {
		t.Errorf("excess O2 %f above atmospheric ceiling %f", got, tn.AtmosphericO2)
	}
}

func TestPhysicsDeterministicWithoutNoise(t *testing.T) {
	tn := GameTuning()

	t1 := tn.NextTemperature(10, 147, 300, 150, 100, 0)
	t2 := tn.NextTemperature(10, 147, 300, 150, 100, 0)
	if t1 != t2 {
		t.Errorf("NextTemperature not deterministic: %f vs %f", t1, t2)
	}

	o1 := tn.NextExcessO2(14.7, 10, 300, 0)
	o2 := tn.NextExcessO2(14.7, 10, 300, 0)
	if o1 != o2 {
		t.Errorf("NextExcessO2 not deterministic: %f vs %f", o1, o2)
	}
}

func TestNextTemperatureOneDecimal(t *testing.T) {
	tn := GameTuning()
	got := tn.NextTemperature(7.3, 101.2, 312.7, 143.9, 88.1, 0)
	if math.Abs(got*10-math.Round(got*10)) > 1e-9 {
		t.Errorf("temperature %f not rounded to one decimal", got)
	}
}

func TestTuningRegistry(t *testing.T) {
	for _, id := range []string{"game", "demo"} {
		tn, ok := Get(id)
		if !ok {
			t.Fatalf("tuning %q not registered", id)
		}
		if tn.ID != id {
			t.Errorf("tuning id mismatch: %q vs %q", tn.ID, id)
		}
	}

	game, _ := Get("game")
	demo, _ := Get("demo")
	if game.CostMultiplier == demo.CostMultiplier {
		t.Error("game and demo tunings should carry separately tuned cost multipliers")
	}
}
