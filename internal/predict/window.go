// Package predict feeds the furnace state into a pre-trained sequence
// model and denormalizes its outputs. The model itself is an opaque
// collaborator reached through the Predictor interface; this package owns
// the 30-tick sliding window and the fixed normalization constants from
// the training pipeline.
package predict

// Window and feature dimensions of the exported model.
const (
	WindowLength = 30
	NumFeatures  = 5
	NumOutputs   = 2
)

// Features is one timestep of raw model inputs, in training column order:
// fuel flow, air/fuel ratio, current temperature, inflow temperature,
// inflow rate.
type Features [NumFeatures]float64

// Per-feature normalization constants computed over the synthetic training
// set. These must match the values the model was trained with; changing
// them silently breaks inference.
var (
	inputMeans = [NumFeatures]float64{10.5, 12.8, 262.5, 150.0, 125.0}
	inputStds  = [NumFeatures]float64{5.48, 7.04, 137.1, 28.9, 43.3}

	targetMeans = [NumOutputs]float64{262.9, 11.2}
	targetStds  = [NumOutputs]float64{137.0, 8.3}
)

// Window is a fixed-length sliding window of normalized feature rows. It
// fills from empty and then drops the oldest row on every push.
type Window struct {
	rows  [][]float64
	count int
}

// NewWindow creates an empty sliding window.
func NewWindow() *Window {
	return &Window{rows: make([][]float64, 0, WindowLength)}
}

// Push normalizes one timestep of raw features and appends it, evicting
// the oldest row once the window is full.
func (w *Window) Push(f Features) {
	row := make([]float64, NumFeatures)
	for i := 0; i < NumFeatures; i++ {
		row[i] = (f[i] - inputMeans[i]) / inputStds[i]
	}
	if len(w.rows) == WindowLength {
		copy(w.rows, w.rows[1:])
		w.rows[WindowLength-1] = row
	} else {
		w.rows = append(w.rows, row)
	}
	w.count++
}

// Full reports whether the window holds a complete sequence.
func (w *Window) Full() bool {
	return len(w.rows) == WindowLength
}

// Len returns the number of rows currently held.
func (w *Window) Len() int {
	return len(w.rows)
}

// Sequence returns a copy of the normalized window, oldest row first.
func (w *Window) Sequence() [][]float64 {
	out := make([][]float64, len(w.rows))
	for i, row := range w.rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Denormalize maps the model's normalized (temperature, O₂) pair back to
// engineering units.
func Denormalize(out [NumOutputs]float64) (temp, o2 float64) {
	temp = out[0]*targetStds[0] + targetMeans[0]
	o2 = out[1]*targetStds[1] + targetMeans[1]
	return temp, o2
}

// Normalize maps an engineering-unit (temperature, O₂) pair into model
// space; the inverse of Denormalize, used by tests and fakes.
func Normalize(temp, o2 float64) [NumOutputs]float64 {
	return [NumOutputs]float64{
		(temp - targetMeans[0]) / targetStds[0],
		(o2 - targetMeans[1]) / targetStds[1],
	}
}
