package api

import (
	"github.com/maercaestro/furnace-commander/internal/physics"
	"github.com/maercaestro/furnace-commander/internal/sim"
)

// APIError represents a structured error response with context
type APIError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Simulation errors
	ErrTypeTuningNotFound = "tuning_not_found"
	ErrTypeSweep          = "sweep_error"

	// Collaborator errors
	ErrTypeStore    = "store_error"
	ErrTypePredict  = "predict_error"
	ErrTypeNotFound = "not_found"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategorySimulation ErrorCategory = "simulation"
	CategorySystem     ErrorCategory = "system"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeTuningNotFound, ErrTypeSweep:
		return CategorySimulation
	default:
		return CategorySystem
	}
}

// TickRequest asks for one stateless physics evaluation: given the
// previous furnace state and this tick's inputs, return the next state and
// rates. Seed/tick select deterministic noise; both empty means no noise.
type TickRequest struct {
	Tuning       string           `json:"tuning,omitempty"`
	State        sim.State        `json:"state"`
	Controls     sim.Controls     `json:"controls"`
	Disturbances sim.Disturbances `json:"disturbances"`
	Seed         string           `json:"seed,omitempty"`
	Tick         uint64           `json:"tick,omitempty"`
}

// TickResponse is the evaluated next state plus per-second rates.
type TickResponse struct {
	State    sim.State `json:"state"`
	CostRate float64   `json:"cost_rate"`
	CORate   float64   `json:"co_rate"`
	CO2Rate  float64   `json:"co2_rate"`
	Version  string    `json:"version"`
}

// ScoreRequest grades a finished episode.
type ScoreRequest struct {
	FinalTemp    float64 `json:"final_temp"`
	TargetTemp   float64 `json:"target_temp"`
	CostSavings  float64 `json:"cost_savings"`
	CumulativeCO float64 `json:"cumulative_co"`
}

// ScoreResponse carries the grade.
type ScoreResponse struct {
	Result  physics.ScoreResult `json:"result"`
	Version string              `json:"version"`
}

// SubmitScoreRequest is a leaderboard submission.
type SubmitScoreRequest struct {
	PlayerName  string  `json:"player_name"`
	Score       int     `json:"score"`
	Grade       string  `json:"grade"`
	FinalTemp   float64 `json:"final_temp"`
	TargetTemp  float64 `json:"target_temp"`
	CostSavings float64 `json:"cost_savings"`
	COEmissions float64 `json:"co_emissions"`
	TimeUsed    int     `json:"time_used"`
	Feedback    string  `json:"feedback,omitempty"`
}

// TuningInfo describes one registered tuning profile.
type TuningInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	OptimalO2Min float64 `json:"optimal_o2_min"`
	OptimalO2Max float64 `json:"optimal_o2_max"`
	StoichAFR    float64 `json:"stoich_afr"`
}

// TuningsResponse lists the registered tunings.
type TuningsResponse struct {
	Tunings []TuningInfo `json:"tunings"`
	Version string       `json:"version"`
}

// DemoRequest runs the prediction replay against the inference sidecar.
type DemoRequest struct {
	Seed     string       `json:"seed,omitempty"`
	Ticks    int          `json:"ticks,omitempty"`
	Controls sim.Controls `json:"controls"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}
