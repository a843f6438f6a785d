package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/maercaestro/furnace-commander/internal/noise"
	"github.com/maercaestro/furnace-commander/internal/physics"
	"github.com/maercaestro/furnace-commander/internal/predict"
	"github.com/maercaestro/furnace-commander/internal/sim"
	"github.com/maercaestro/furnace-commander/internal/store"
)

// handleTick evaluates one physics tick statelessly.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}

	if req.Tuning == "" {
		req.Tuning = "game"
	}
	tuning, ok := physics.Get(req.Tuning)
	if !ok {
		s.errorHandler.HandleError(w, r, errors.New("unknown tuning "+req.Tuning), ErrTypeTuningNotFound, http.StatusNotFound)
		return
	}

	// Deterministic noise when a seed is supplied; zero noise otherwise.
	var tempNoise, o2Noise float64
	if req.Seed != "" {
		stream := noise.NewStream(req.Seed, req.Tuning)
		stream.Advance(req.Tick)
		tempNoise = stream.Symmetric(tuning.TempNoise)
		o2Noise = stream.Symmetric(tuning.O2Noise)
	}

	airFlow := req.Controls.FuelFlow * req.Controls.AirFuelRatio
	next := sim.State{
		CurrentTemperature: tuning.NextTemperature(
			req.Controls.FuelFlow, airFlow, req.State.CurrentTemperature,
			req.Disturbances.InflowTemperature, req.Disturbances.InflowRate, tempNoise),
	}
	next.ExcessO2 = tuning.NextExcessO2(
		req.Controls.AirFuelRatio, req.Controls.FuelFlow,
		req.State.CurrentTemperature, o2Noise)

	s.writeJSON(w, http.StatusOK, TickResponse{
		State:    next,
		CostRate: tuning.CostImpact(next.ExcessO2, req.Controls.FuelFlow),
		CORate:   tuning.COEmissionRate(next.ExcessO2),
		CO2Rate:  tuning.CO2EmissionRate(req.Controls.FuelFlow, req.Controls.AirFuelRatio),
		Version:  Version,
	})
}

// handleScore grades a finished episode.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}

	result := physics.Score(req.FinalTemp-req.TargetTemp, req.CostSavings, req.CumulativeCO)
	s.writeJSON(w, http.StatusOK, ScoreResponse{Result: result, Version: Version})
}

// handleSweep runs a steady-state parameter sweep.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sim.SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}

	result, err := s.sweeper.Sweep(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, sim.ErrTuningNotFound):
			s.errorHandler.HandleError(w, r, err, ErrTypeTuningNotFound, http.StatusNotFound)
		case errors.Is(err, sim.ErrInvalidGrid):
			s.errorHandler.HandleValidationError(w, r, "grid", err.Error())
		default:
			s.errorHandler.HandleError(w, r, err, ErrTypeSweep, http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleDemo replays the prediction demo against the inference sidecar.
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		s.errorHandler.HandleError(w, r,
			errors.New("no inference sidecar configured"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	var req DemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}

	result, err := predict.RunDemo(r.Context(), s.predictor, predict.DemoConfig{
		Seed:     req.Seed,
		Ticks:    req.Ticks,
		Controls: req.Controls,
	})
	if err != nil {
		s.errorHandler.HandleError(w, r, err, ErrTypePredict, http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleListTunings lists the registered tuning profiles.
func (s *Server) handleListTunings(w http.ResponseWriter, r *http.Request) {
	ids := physics.List()
	tunings := make([]TuningInfo, 0, len(ids))
	for _, id := range ids {
		tn, ok := physics.Get(id)
		if !ok {
			continue
		}
		tunings = append(tunings, TuningInfo{
			ID:           tn.ID,
			Name:         tn.Name,
			OptimalO2Min: tn.OptimalO2Min,
			OptimalO2Max: tn.OptimalO2Max,
			StoichAFR:    tn.StoichAFR,
		})
	}
	s.writeJSON(w, http.StatusOK, TuningsResponse{Tunings: tunings, Version: Version})
}

var validGrades = map[string]bool{"A": true, "B": true, "C": true, "D": true, "F": true}

// handleSubmitScore inserts a leaderboard row. There are no retries; a
// failed submit surfaces to the player for manual retry.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("leaderboard disabled"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	var req SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON payload")
		return
	}

	if req.PlayerName == "" || len(req.PlayerName) > 64 {
		s.errorHandler.HandleValidationError(w, r, "player_name", "player name must be 1-64 characters")
		return
	}
	if req.Score < 0 || req.Score > 100 {
		s.errorHandler.HandleValidationError(w, r, "score", "score must be in [0, 100]")
		return
	}
	if !validGrades[req.Grade] {
		s.errorHandler.HandleValidationError(w, r, "grade", "grade must be one of A, B, C, D, F")
		return
	}
	if req.TimeUsed < 0 {
		s.errorHandler.HandleValidationError(w, r, "time_used", "time used must not be negative")
		return
	}

	row := &store.ScoreRow{
		PlayerName:  req.PlayerName,
		Score:       req.Score,
		Grade:       req.Grade,
		FinalTemp:   req.FinalTemp,
		TargetTemp:  req.TargetTemp,
		CostSavings: decimal.NewFromFloat(req.CostSavings),
		COEmissions: req.COEmissions,
		TimeUsed:    req.TimeUsed,
		Feedback:    req.Feedback,
	}
	if err := s.db.SubmitScore(row); err != nil {
		s.errorHandler.HandleError(w, r, err, ErrTypeStore, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, row)
}

// handleTopScores returns the leaderboard, best first.
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("leaderboard disabled"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			s.errorHandler.HandleValidationError(w, r, "limit", "limit must be an integer in [1, 100]")
			return
		}
		limit = n
	}

	scores, err := s.db.TopScores(limit)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, ErrTypeStore, http.StatusInternalServerError)
		return
	}
	if scores == nil {
		scores = []store.ScoreRow{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"scores": scores, "version": Version})
}

// handleListScores returns leaderboard rows with pagination and an
// optional grade filter.
func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("leaderboard disabled"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	q := store.ScoresQuery{Page: 1, PerPage: 50}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorHandler.HandleValidationError(w, r, "page", "page must be a positive integer")
			return
		}
		q.Page = n
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			s.errorHandler.HandleValidationError(w, r, "per_page", "per_page must be an integer in [1, 200]")
			return
		}
		q.PerPage = n
	}
	if v := r.URL.Query().Get("grade"); v != "" {
		if !validGrades[v] {
			s.errorHandler.HandleValidationError(w, r, "grade", "grade must be one of A, B, C, D, F")
			return
		}
		q.Grade = v
	}

	list, err := s.db.ListScores(q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, ErrTypeStore, http.StatusInternalServerError)
		return
	}
	if list.Scores == nil {
		list.Scores = []store.ScoreRow{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleGetScore returns a single leaderboard row by id.
func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("leaderboard disabled"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	row, err := s.db.GetScore(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.errorHandler.HandleError(w, r, errors.New("score not found"),
				ErrTypeNotFound, http.StatusNotFound)
			return
		}
		s.errorHandler.HandleError(w, r, err, ErrTypeStore, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, row)
}

// handleGetEpisode returns one archived episode by id.
func (s *Server) handleGetEpisode(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("episode archive disabled"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	row, err := s.db.GetEpisode(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.errorHandler.HandleError(w, r, errors.New("episode not found"),
				ErrTypeNotFound, http.StatusNotFound)
			return
		}
		s.errorHandler.HandleError(w, r, err, ErrTypeStore, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, row)
}

// handleRecentEpisodes returns recently archived episodes.
func (s *Server) handleRecentEpisodes(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleError(w, r, errors.New("episode archive disabled"),
			ErrTypeServiceUnavailable, http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			s.errorHandler.HandleValidationError(w, r, "limit", "limit must be an integer in [1, 100]")
			return
		}
		limit = n
	}

	episodes, err := s.db.RecentEpisodes(limit)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, ErrTypeStore, http.StatusInternalServerError)
		return
	}
	if episodes == nil {
		episodes = []store.EpisodeRow{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"episodes": episodes, "version": Version})
}
