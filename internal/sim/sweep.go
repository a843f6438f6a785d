package sim

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maercaestro/furnace-commander/internal/physics"
)

// TargetOp represents comparison operations for sweep filtering.
type TargetOp string

const (
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
	OpOutside      TargetOp = "outside"
)

// SweepMetric selects which steady-state value the target applies to.
type SweepMetric string

const (
	MetricFinalTemp SweepMetric = "final_temp"
	MetricFinalO2   SweepMetric = "final_o2"
	MetricCostRate  SweepMetric = "cost_rate"
	MetricCORate    SweepMetric = "co_rate"
)

// Axis describes one swept control dimension.
type Axis struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

func (a Axis) count() int {
	if a.Step <= 0 || a.Max < a.Min {
		return 0
	}
	return int((a.Max-a.Min)/a.Step) + 1
}

// SweepRequest asks which control settings reach a target at steady state.
// Each grid cell runs SettleTicks noise-free ticks from InitialTemp with
// the disturbances held mid-range.
type SweepRequest struct {
	TuningID     string      `json:"tuning"`
	FuelFlow     Axis        `json:"fuel_flow"`
	AirFuelRatio Axis        `json:"air_fuel_ratio"`
	SettleTicks  int         `json:"settle_ticks,omitempty"` // default 120
	InitialTemp  float64     `json:"initial_temp,omitempty"`
	Metric       SweepMetric `json:"metric"`
	TargetOp     TargetOp    `json:"target_op"`
	TargetVal    float64     `json:"target_val"`
	TargetVal2   float64     `json:"target_val2,omitempty"` // for "between" and "outside"
	Tolerance    float64     `json:"tolerance,omitempty"`
	Limit        int         `json:"limit,omitempty"`
	TimeoutMs    int         `json:"timeout_ms,omitempty"`
}

// SweepHit is one matching control setting with its full steady state.
type SweepHit struct {
	FuelFlow     float64 `json:"fuel_flow"`
	AirFuelRatio float64 `json:"air_fuel_ratio"`
	Metric       float64 `json:"metric"`
	FinalTemp    float64 `json:"final_temp"`
	FinalO2      float64 `json:"final_o2"`
	CostRate     float64 `json:"cost_rate"`
	CORate       float64 `json:"co_rate"`
}

// SweepSummary contains aggregate statistics over all evaluated cells.
type SweepSummary struct {
	TotalEvaluated uint64  `json:"total_evaluated"`
	HitsFound      int     `json:"hits_found"`
	MinMetric      float64 `json:"min_metric"`
	MaxMetric      float64 `json:"max_metric"`
	MeanMetric     float64 `json:"mean_metric"`
	TimedOut       bool    `json:"timed_out,omitempty"`
}

// SweepResult contains the complete sweep output.
type SweepResult struct {
	Hits    []SweepHit   `json:"hits"`
	Summary SweepSummary `json:"summary"`
	Echo    SweepRequest `json:"echo"`
}

type sweepCell struct {
	fuelFlow     float64
	airFuelRatio float64
}

// TargetEvaluator checks metrics against the requested condition with
// tolerance.
type TargetEvaluator struct {
	op        TargetOp
	val1      float64
	val2      float64
	tolerance float64
}

// NewTargetEvaluator creates a target evaluator.
func NewTargetEvaluator(op TargetOp, val1, val2, tolerance float64) *TargetEvaluator {
	return &TargetEvaluator{op: op, val1: val1, val2: val2, tolerance: tolerance}
}

// Matches checks if a metric satisfies the target condition.
func (te *TargetEvaluator) Matches(metric float64) bool {
	switch te.op {
	case OpEqual:
		return abs(metric-te.val1) <= te.tolerance
	case OpGreater:
		return metric > te.val1+te.tolerance
	case OpGreaterEqual:
		return metric >= te.val1-te.tolerance
	case OpLess:
		return metric < te.val1-te.tolerance
	case OpLessEqual:
		return metric <= te.val1+te.tolerance
	case OpBetween:
		return metric >= te.val1-te.tolerance && metric <= te.val2+te.tolerance
	case OpOutside:
		return metric < te.val1-te.tolerance || metric > te.val2+te.tolerance
	default:
		return false
	}
}

// Sweeper evaluates control-setting grids in parallel.
type Sweeper struct {
	workerCount int
}

// NewSweeper creates a sweeper using all available CPUs.
func NewSweeper() *Sweeper {
	return &Sweeper{workerCount: runtime.GOMAXPROCS(0)}
}

// Sweep evaluates every cell of the requested grid and returns the hits
// plus summary statistics.
func (s *Sweeper) Sweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	if req.TuningID == "" {
		req.TuningID = "game"
	}
	tuning, ok := physics.Get(req.TuningID)
	if !ok {
		return nil, ErrTuningNotFound
	}
	if req.FuelFlow.count() == 0 || req.AirFuelRatio.count() == 0 {
		return nil, ErrInvalidGrid
	}
	if req.SettleTicks <= 0 {
		req.SettleTicks = 120
	}
	if req.InitialTemp < tuning.AmbientTemp {
		req.InitialTemp = tuning.AmbientTemp
	}
	if req.Metric == "" {
		req.Metric = MetricFinalTemp
	}
	if req.Tolerance == 0 {
		req.Tolerance = 1e-9
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	evaluator := NewTargetEvaluator(req.TargetOp, req.TargetVal, req.TargetVal2, req.Tolerance)

	cells := make(chan sweepCell, s.workerCount*2)
	hits := make(chan SweepHit, 256)

	var evaluated uint64
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case cell, ok := <-cells:
					if !ok {
						return
					}
					hit := evaluateCell(tuning, cell, req)
					atomic.AddUint64(&evaluated, 1)
					if evaluator.Matches(hit.Metric) {
						select {
						case hits <- hit:
						case <-ctx.Done():
							return
						}
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(cells)
		for f := 0; f < req.FuelFlow.count(); f++ {
			for a := 0; a < req.AirFuelRatio.count(); a++ {
				cell := sweepCell{
					fuelFlow:     req.FuelFlow.Min + float64(f)*req.FuelFlow.Step,
					airFuelRatio: req.AirFuelRatio.Min + float64(a)*req.AirFuelRatio.Step,
				}
				select {
				case cells <- cell:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(hits)
	}()

	var collected []SweepHit
	var metrics []float64
	timedOut := false
	for hit := range hits {
		if req.Limit > 0 && len(collected) >= req.Limit {
			continue // keep draining so workers can finish
		}
		collected = append(collected, hit)
		metrics = append(metrics, hit.Metric)
	}
	if ctx.Err() != nil {
		timedOut = true
	}

	result := &SweepResult{
		Hits:    collected,
		Summary: summarize(metrics, atomic.LoadUint64(&evaluated), timedOut),
		Echo:    req,
	}
	return result, nil
}

// evaluateCell runs one control setting to steady state with zero noise and
// mid-range held disturbances.
func evaluateCell(tn *physics.Tuning, cell sweepCell, req SweepRequest) SweepHit {
	const (
		inflowTemp = (MinInflowTemp + MaxInflowTemp) / 2
		inflowRate = (MinInflowRate + MaxInflowRate) / 2
	)

	temp := req.InitialTemp
	o2 := 0.0
	airFlow := cell.fuelFlow * cell.airFuelRatio
	for i := 0; i < req.SettleTicks; i++ {
		o2 = tn.RawNextExcessO2(cell.airFuelRatio, cell.fuelFlow, temp, 0)
		temp = tn.RawNextTemperature(cell.fuelFlow, airFlow, temp, inflowTemp, inflowRate, 0)
	}

	hit := SweepHit{
		FuelFlow:     cell.fuelFlow,
		AirFuelRatio: cell.airFuelRatio,
		FinalTemp:    temp,
		FinalO2:      o2,
		CostRate:     tn.CostImpact(o2, cell.fuelFlow),
		CORate:       tn.COEmissionRate(o2),
	}
	switch req.Metric {
	case MetricFinalO2:
		hit.Metric = hit.FinalO2
	case MetricCostRate:
		hit.Metric = hit.CostRate
	case MetricCORate:
		hit.Metric = hit.CORate
	default:
		hit.Metric = hit.FinalTemp
	}
	return hit
}

func summarize(metrics []float64, evaluated uint64, timedOut bool) SweepSummary {
	summary := SweepSummary{
		TotalEvaluated: evaluated,
		HitsFound:      len(metrics),
		TimedOut:       timedOut,
	}
	if len(metrics) == 0 {
		return summary
	}

	min := metrics[0]
	max := metrics[0]
	sum := 0.0
	for _, m := range metrics {
		if m < min {
			min = m
		}
		if m > max {
			max = m
		}
		sum += m
	}
	summary.MinMetric = min
	summary.MaxMetric = max
	summary.MeanMetric = sum / float64(len(metrics))
	return summary
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
