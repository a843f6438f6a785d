package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/maercaestro/furnace-commander/internal/sim"
)

// ComparisonPoint pairs a model prediction with the physics ground truth
// for one tick. Predictions only exist once the window is full.
type ComparisonPoint struct {
	Tick          uint64  `json:"tick"`
	ActualTemp    float64 `json:"actual_temp"`
	ActualO2      float64 `json:"actual_o2"`
	PredictedTemp float64 `json:"predicted_temp"`
	PredictedO2   float64 `json:"predicted_o2"`
}

// DemoConfig configures a prediction replay.
type DemoConfig struct {
	Seed     string
	Ticks    int          // default 120
	Controls sim.Controls // fixed controls for the whole replay
}

// DemoResult is the full replay trace plus aggregate error.
type DemoResult struct {
	EpisodeID   string            `json:"episode_id"`
	Points      []ComparisonPoint `json:"points"`
	MeanAbsTemp float64           `json:"mean_abs_temp_error"`
	MeanAbsO2   float64           `json:"mean_abs_o2_error"`
}

// RunDemo replays an episode on the demo tuning, feeding every tick into
// the sliding window and querying the predictor once the window is full.
// The physics state is the ground truth the predictions are scored
// against.
func RunDemo(ctx context.Context, p Predictor, cfg DemoConfig) (*DemoResult, error) {
	if cfg.Ticks <= 0 {
		cfg.Ticks = 120
	}

	e, err := sim.NewEpisode(sim.Config{
		TuningID:   "demo",
		Seed:       cfg.Seed,
		TickPeriod: time.Second,
		Controls:   cfg.Controls,
	})
	if err != nil {
		return nil, err
	}

	window := NewWindow()
	result := &DemoResult{EpisodeID: e.ID()}

	var sumTempErr, sumO2Err float64
	predicted := 0

	for i := 0; i < cfg.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap := e.Step()
		window.Push(Features{
			snap.Controls.FuelFlow,
			snap.Controls.AirFuelRatio,
			snap.State.CurrentTemperature,
			snap.Disturbances.InflowTemperature,
			snap.Disturbances.InflowRate,
		})
		if !window.Full() {
			continue
		}

		normalized, err := p.Predict(ctx, window.Sequence())
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", snap.Tick, err)
		}
		predTemp, predO2 := Denormalize(normalized)

		point := ComparisonPoint{
			Tick:          snap.Tick,
			ActualTemp:    snap.State.CurrentTemperature,
			ActualO2:      snap.State.ExcessO2,
			PredictedTemp: predTemp,
			PredictedO2:   predO2,
		}
		result.Points = append(result.Points, point)
		sumTempErr += absf(predTemp - point.ActualTemp)
		sumO2Err += absf(predO2 - point.ActualO2)
		predicted++
	}

	if predicted > 0 {
		result.MeanAbsTemp = sumTempErr / float64(predicted)
		result.MeanAbsO2 = sumO2Err / float64(predicted)
	}
	return result, nil
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
