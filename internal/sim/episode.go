// Package sim drives the furnace model: the tick-by-tick episode engine
// used for live play, and a parallel sweep over control settings.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maercaestro/furnace-commander/internal/noise"
	"github.com/maercaestro/furnace-commander/internal/physics"
)

// Controls are the player-owned inputs, clamped to slider ranges.
type Controls struct {
	FuelFlow          float64 `json:"fuel_flow"`           // units/hour
	AirFuelRatio      float64 `json:"air_fuel_ratio"`      // dimensionless
	TargetTemperature float64 `json:"target_temperature"`  // °C
}

// Disturbances are the process inputs that drift on their own each tick
// unless manually overridden.
type Disturbances struct {
	InflowTemperature float64 `json:"inflow_temperature"` // °C
	InflowRate        float64 `json:"inflow_rate"`        // units/hour
}

// State is the furnace snapshot replaced wholesale each tick.
type State struct {
	CurrentTemperature float64 `json:"current_temperature"` // °C, floored at ambient
	ExcessO2           float64 `json:"excess_o2"`           // %, floored at 0
}

// Accumulators collect episode totals. Cost is kept in decimal so repeated
// small per-tick sums do not drift.
type Accumulators struct {
	CostSavings   decimal.Decimal `json:"cost_savings"`   // $, signed
	CumulativeCO  float64         `json:"cumulative_co"`  // kg, never decreases
	CumulativeCO2 float64         `json:"cumulative_co2"` // kg, never decreases
}

// Snapshot is the full per-tick view handed to consumers.
type Snapshot struct {
	EpisodeID    string       `json:"episode_id"`
	Tick         uint64       `json:"tick"`
	State        State        `json:"state"`
	Controls     Controls     `json:"controls"`
	Disturbances Disturbances `json:"disturbances"`
	Accumulators Accumulators `json:"accumulators"`
	CostRate     float64      `json:"cost_rate"`     // $/s this tick
	CORate       float64      `json:"co_rate"`       // kg/s this tick
	CO2Rate      float64      `json:"co2_rate"`      // kg/s this tick
	Elapsed      float64      `json:"elapsed"`       // seconds of simulated time
}

// Summary is produced when an episode finishes.
type Summary struct {
	EpisodeID     string              `json:"episode_id"`
	Tuning        string              `json:"tuning"`
	Seed          string              `json:"seed"`
	Ticks         uint64              `json:"ticks"`
	TimeUsed      int                 `json:"time_used"` // whole seconds
	FinalTemp     float64             `json:"final_temp"`
	TargetTemp    float64             `json:"target_temp"`
	FinalO2       float64             `json:"final_o2"`
	CostSavings   decimal.Decimal     `json:"cost_savings"`
	CumulativeCO  float64             `json:"cumulative_co"`
	CumulativeCO2 float64             `json:"cumulative_co2"`
	Score         physics.ScoreResult `json:"score"`
}

// Control slider and disturbance clamp ranges.
const (
	MinFuelFlow     = 1.0
	MaxFuelFlow     = 20.0
	MinAirFuelRatio = 0.6
	MaxAirFuelRatio = 25.0

	MinInflowTemp = 100.0
	MaxInflowTemp = 200.0
	MinInflowRate = 50.0
	MaxInflowRate = 200.0

	// Per-tick random walk magnitudes for the disturbances.
	inflowTempStep = 5.0
	inflowRateStep = 10.0
)

// Config sets up an episode. Zero values fall back to game defaults.
type Config struct {
	TuningID    string
	Seed        string
	TickPeriod  time.Duration
	InitialTemp float64
	Controls    Controls
	// HoldDisturbances freezes the random walk at the initial values.
	HoldDisturbances bool
	Disturbances     Disturbances
}

// Episode owns the mutable simulation state for one play-through. Each
// tick reads the previous snapshot and produces the next; the physics
// itself stays pure.
type Episode struct {
	id     string
	tuning *physics.Tuning
	cfg    Config
	noise  *noise.Stream

	mu       sync.Mutex
	tick     uint64
	state    State
	controls Controls
	dist     Disturbances
	acc      Accumulators
	done     bool
}

// NewEpisode creates an episode with fresh accumulators.
func NewEpisode(cfg Config) (*Episode, error) {
	if cfg.TuningID == "" {
		cfg.TuningID = "game"
	}
	tuning, ok := physics.Get(cfg.TuningID)
	if !ok {
		return nil, ErrTuningNotFound
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = 333 * time.Millisecond
	}
	if cfg.Seed == "" {
		cfg.Seed = uuid.New().String()
	}
	if cfg.InitialTemp < tuning.AmbientTemp {
		cfg.InitialTemp = tuning.AmbientTemp
	}

	// The noise stream is keyed by seed and tuning only, never by the
	// episode id, so two episodes with the same seed replay identically.
	e := &Episode{
		id:     uuid.New().String(),
		tuning: tuning,
		cfg:    cfg,
		noise:  noise.NewStream(cfg.Seed, cfg.TuningID),
		state:  State{CurrentTemperature: cfg.InitialTemp},
		dist:   cfg.Disturbances,
	}
	if e.dist.InflowTemperature == 0 && e.dist.InflowRate == 0 {
		e.dist = Disturbances{InflowTemperature: 150, InflowRate: 100}
	}
	e.dist = clampDisturbances(e.dist)
	e.SetControls(cfg.Controls)
	return e, nil
}

// ID returns the episode identifier.
func (e *Episode) ID() string { return e.id }

// TickPeriod returns the configured tick interval.
func (e *Episode) TickPeriod() time.Duration { return e.cfg.TickPeriod }

// SetControls clamps and applies new control inputs for the next tick.
func (e *Episode) SetControls(c Controls) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controls = Controls{
		FuelFlow:          clamp(c.FuelFlow, MinFuelFlow, MaxFuelFlow),
		AirFuelRatio:      clamp(c.AirFuelRatio, MinAirFuelRatio, MaxAirFuelRatio),
		TargetTemperature: c.TargetTemperature,
	}
}

// Controls returns the current control inputs.
func (e *Episode) Controls() Controls {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.controls
}

// Step advances the simulation one tick and returns the new snapshot.
func (e *Episode) Step() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tick++
	e.noise.Advance(e.tick)

	// Fixed draw order per tick keeps replays stable: disturbance walk
	// first, then physics noise.
	if !e.cfg.HoldDisturbances {
		e.dist.InflowTemperature += e.noise.Symmetric(inflowTempStep)
		e.dist.InflowRate += e.noise.Symmetric(inflowRateStep)
		e.dist = clampDisturbances(e.dist)
	} else {
		// Consume the draws anyway so held and walking episodes with the
		// same seed share physics noise.
		e.noise.Symmetric(inflowTempStep)
		e.noise.Symmetric(inflowRateStep)
	}
	tempNoise := e.noise.Symmetric(e.tuning.TempNoise)
	o2Noise := e.noise.Symmetric(e.tuning.O2Noise)

	airFlow := e.controls.FuelFlow * e.controls.AirFuelRatio
	next := State{
		CurrentTemperature: e.tuning.NextTemperature(
			e.controls.FuelFlow, airFlow, e.state.CurrentTemperature,
			e.dist.InflowTemperature, e.dist.InflowRate, tempNoise),
	}
	next.ExcessO2 = e.tuning.NextExcessO2(
		e.controls.AirFuelRatio, e.controls.FuelFlow,
		e.state.CurrentTemperature, o2Noise)
	e.state = next

	dt := e.cfg.TickPeriod.Seconds()
	costRate := e.tuning.CostImpact(next.ExcessO2, e.controls.FuelFlow)
	coRate := e.tuning.COEmissionRate(next.ExcessO2)
	co2Rate := e.tuning.CO2EmissionRate(e.controls.FuelFlow, e.controls.AirFuelRatio)

	e.acc.CostSavings = e.acc.CostSavings.Add(decimal.NewFromFloat(costRate * dt))
	e.acc.CumulativeCO += coRate * dt
	e.acc.CumulativeCO2 += co2Rate * dt

	return Snapshot{
		EpisodeID:    e.id,
		Tick:         e.tick,
		State:        next,
		Controls:     e.controls,
		Disturbances: e.dist,
		Accumulators: e.acc,
		CostRate:     costRate,
		CORate:       coRate,
		CO2Rate:      co2Rate,
		Elapsed:      float64(e.tick) * dt,
	}
}

// Run drives the episode on its tick period until the context is
// cancelled, calling onTick after every step. Cancellation simply stops
// scheduling ticks; each tick is atomic.
func (e *Episode) Run(ctx context.Context, onTick func(Snapshot)) {
	ticker := time.NewTicker(e.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := e.Step()
			if onTick != nil {
				onTick(snap)
			}
		}
	}
}

// Finish closes the episode and grades it.
func (e *Episode) Finish() (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return Summary{}, ErrEpisodeDone
	}
	e.done = true

	savings := e.acc.CostSavings.InexactFloat64()
	tempErr := e.state.CurrentTemperature - e.controls.TargetTemperature
	return Summary{
		EpisodeID:     e.id,
		Tuning:        e.tuning.ID,
		Seed:          e.cfg.Seed,
		Ticks:         e.tick,
		TimeUsed:      int(float64(e.tick) * e.cfg.TickPeriod.Seconds()),
		FinalTemp:     e.state.CurrentTemperature,
		TargetTemp:    e.controls.TargetTemperature,
		FinalO2:       e.state.ExcessO2,
		CostSavings:   e.acc.CostSavings,
		CumulativeCO:  e.acc.CumulativeCO,
		CumulativeCO2: e.acc.CumulativeCO2,
		Score:         physics.Score(tempErr, savings, e.acc.CumulativeCO),
	}, nil
}

// Snapshot returns the current state without advancing the simulation.
func (e *Episode) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		EpisodeID:    e.id,
		Tick:         e.tick,
		State:        e.state,
		Controls:     e.controls,
		Disturbances: e.dist,
		Accumulators: e.acc,
		Elapsed:      float64(e.tick) * e.cfg.TickPeriod.Seconds(),
	}
}

func clampDisturbances(d Disturbances) Disturbances {
	return Disturbances{
		InflowTemperature: clamp(d.InflowTemperature, MinInflowTemp, MaxInflowTemp),
		InflowRate:        clamp(d.InflowRate, MinInflowRate, MaxInflowRate),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
