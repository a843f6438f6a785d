package predict

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maercaestro/furnace-commander/internal/sim"
)

func TestWindowFillsAndSlides(t *testing.T) {
	w := NewWindow()
	if w.Full() {
		t.Fatal("fresh window should not be full")
	}

	for i := 0; i < WindowLength; i++ {
		w.Push(Features{float64(i), 14.7, 300, 150, 100})
	}
	if !w.Full() {
		t.Fatal("window should be full after 30 pushes")
	}

	seq := w.Sequence()
	if len(seq) != WindowLength || len(seq[0]) != NumFeatures {
		t.Fatalf("sequence shape %dx%d, want %dx%d", len(seq), len(seq[0]), WindowLength, NumFeatures)
	}

	// Pushing one more evicts the oldest row.
	w.Push(Features{99, 14.7, 300, 150, 100})
	seq = w.Sequence()
	if len(seq) != WindowLength {
		t.Fatalf("window grew past fixed length: %d", len(seq))
	}
	wantFirst := (1.0 - 10.5) / 5.48
	if math.Abs(seq[0][0]-wantFirst) > 1e-12 {
		t.Errorf("oldest row not evicted: first fuel feature %f, want %f", seq[0][0], wantFirst)
	}
	wantLast := (99.0 - 10.5) / 5.48
	if math.Abs(seq[WindowLength-1][0]-wantLast) > 1e-12 {
		t.Errorf("newest row wrong: %f, want %f", seq[WindowLength-1][0], wantLast)
	}
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	temp, o2 := Denormalize(Normalize(327.4, 2.1))
	if math.Abs(temp-327.4) > 1e-9 || math.Abs(o2-2.1) > 1e-9 {
		t.Errorf("round trip produced (%f, %f)", temp, o2)
	}
}

func TestClientPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"output": [[0.1, 0.2], [0.5, -0.5]]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	seq := make([][]float64, WindowLength)
	for i := range seq {
		seq[i] = make([]float64, NumFeatures)
	}

	out, err := c.Predict(context.Background(), seq)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// Only the last timestep's pair is used.
	if out[0] != 0.5 || out[1] != -0.5 {
		t.Errorf("got %v, want [0.5 -0.5]", out)
	}
}

func TestClientRetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"output": [[1.0, 1.0]]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BaseRetryDelay: time.Millisecond})
	seq := make([][]float64, WindowLength)
	for i := range seq {
		seq[i] = make([]float64, NumFeatures)
	}

	out, err := c.Predict(context.Background(), seq)
	if err != nil {
		t.Fatalf("Predict after retries: %v", err)
	}
	if out[0] != 1.0 {
		t.Errorf("got %v", out)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, MaxRetries: 2, BaseRetryDelay: time.Millisecond})
	seq := make([][]float64, WindowLength)
	for i := range seq {
		seq[i] = make([]float64, NumFeatures)
	}
	if _, err := c.Predict(context.Background(), seq); err == nil {
		t.Error("expected error after exhausting retries")
	}
}

func TestClientFailsFastOn4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad sequence shape", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BaseRetryDelay: time.Millisecond})
	seq := make([][]float64, WindowLength)
	for i := range seq {
		seq[i] = make([]float64, NumFeatures)
	}

	_, err := c.Predict(context.Background(), seq)
	if err == nil {
		t.Fatal("expected error for 4xx response")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Errorf("expected StatusError with 400, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("4xx must not be retried: got %d attempts", got)
	}
}

func TestClientRejectsBadShape(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})
	if _, err := c.Predict(context.Background(), [][]float64{{1, 2, 3}}); err != ErrBadSequence {
		t.Errorf("expected ErrBadSequence, got %v", err)
	}
}

// physicsPredictor is a persistence fake: it predicts the last window
// row's temperature as the next one.
type physicsPredictor struct{}

func (physicsPredictor) Predict(_ context.Context, seq [][]float64) ([NumOutputs]float64, error) {
	last := seq[len(seq)-1]
	temp := last[2]*inputStds[2] + inputMeans[2]
	return Normalize(temp, 2.0), nil
}

func TestRunDemo(t *testing.T) {
	result, err := RunDemo(context.Background(), physicsPredictor{}, DemoConfig{
		Seed:  "demo-seed",
		Ticks: 50,
		Controls: sim.Controls{
			FuelFlow:          10,
			AirFuelRatio:      14.7,
			TargetTemperature: 350,
		},
	})
	if err != nil {
		t.Fatalf("RunDemo: %v", err)
	}

	// 50 ticks minus the 29 needed to fill the window.
	wantPoints := 50 - (WindowLength - 1)
	if len(result.Points) != wantPoints {
		t.Errorf("got %d comparison points, want %d", len(result.Points), wantPoints)
	}
	for _, p := range result.Points {
		if p.ActualTemp < 25 || p.ActualO2 < 0 {
			t.Fatalf("ground truth violated physics floors: %+v", p)
		}
	}
	if result.MeanAbsTemp < 0 || result.MeanAbsO2 < 0 {
		t.Error("mean absolute errors should be non-negative")
	}
}

func TestRunDemoDeterministicGroundTruth(t *testing.T) {
	cfg := DemoConfig{
		Seed:     "fixed",
		Ticks:    40,
		Controls: sim.Controls{FuelFlow: 10, AirFuelRatio: 14.7, TargetTemperature: 350},
	}
	r1, err := RunDemo(context.Background(), physicsPredictor{}, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	r2, err := RunDemo(context.Background(), physicsPredictor{}, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := range r1.Points {
		if r1.Points[i].ActualTemp != r2.Points[i].ActualTemp {
			t.Fatalf("point %d ground truth diverged between identical seeds", i)
		}
	}
}
