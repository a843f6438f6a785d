package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maercaestro/furnace-commander/internal/sim"
	"github.com/maercaestro/furnace-commander/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The browser front-end runs on its own origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// controlMessage is what the client sends during live play. Slider fields
// are pointers so an omitted field keeps its current value.
type controlMessage struct {
	Type         string   `json:"type"` // "controls" or "stop"
	FuelFlow     *float64 `json:"fuel_flow,omitempty"`
	AirFuelRatio *float64 `json:"air_fuel_ratio,omitempty"`
}

// playMessage is what the server streams back.
type playMessage struct {
	Type     string        `json:"type"` // "tick" or "summary"
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
	Summary  *sim.Summary  `json:"summary,omitempty"`
}

// handlePlay runs a live episode over a WebSocket: the server ticks the
// simulation on its own clock and streams each snapshot; the client sends
// slider updates whenever it likes and "stop" to finish and get graded.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cfg := sim.Config{
		TuningID: q.Get("tuning"),
		Seed:     q.Get("seed"),
		Controls: sim.Controls{
			FuelFlow:     10,
			AirFuelRatio: 14.7,
		},
	}
	if v := q.Get("target"); v != "" {
		target, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, "target", "target must be a number")
			return
		}
		cfg.Controls.TargetTemperature = target
	}
	if v := q.Get("period_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 100 || ms > 5000 {
			s.errorHandler.HandleValidationError(w, r, "period_ms", "period_ms must be an integer in [100, 5000]")
			return
		}
		cfg.TickPeriod = time.Duration(ms) * time.Millisecond
	}

	episode, err := sim.NewEpisode(cfg)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, ErrTypeTuningNotFound, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Printf("ws_upgrade_failed remote=%s err=%v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Single writer: the tick loop owns the connection until it returns.
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		episode.Run(ctx, func(snap sim.Snapshot) {
			if err := conn.WriteJSON(playMessage{Type: "tick", Snapshot: &snap}); err != nil {
				cancel()
			}
		})
	}()

	// Reader loop: apply control updates until stop or disconnect.
	for {
		var msg controlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			cancel()
			break
		}
		if msg.Type == "stop" {
			cancel()
			break
		}
		if msg.Type == "controls" {
			controls := episode.Controls()
			if msg.FuelFlow != nil {
				controls.FuelFlow = *msg.FuelFlow
			}
			if msg.AirFuelRatio != nil {
				controls.AirFuelRatio = *msg.AirFuelRatio
			}
			episode.SetControls(controls)
		}
	}
	<-runDone

	summary, err := episode.Finish()
	if err != nil {
		return
	}
	if err := conn.WriteJSON(playMessage{Type: "summary", Summary: &summary}); err != nil {
		s.logger.Printf("ws_summary_write_failed episode=%s err=%v", episode.ID(), err)
	}

	// Archive the episode; a failure here never affects the play session.
	if s.db != nil {
		row := &store.EpisodeRow{
			ID:            summary.EpisodeID,
			Tuning:        summary.Tuning,
			Seed:          summary.Seed,
			Ticks:         summary.Ticks,
			FinalTemp:     summary.FinalTemp,
			FinalO2:       summary.FinalO2,
			TargetTemp:    summary.TargetTemp,
			CostSavings:   summary.CostSavings,
			CumulativeCO:  summary.CumulativeCO,
			CumulativeCO2: summary.CumulativeCO2,
			Score:         summary.Score.NumericScore,
			Grade:         summary.Score.LetterGrade,
		}
		if err := s.db.SaveEpisode(row); err != nil {
			s.logger.Printf("episode_archive_failed episode=%s err=%v", summary.EpisodeID, err)
		}
	}
}
