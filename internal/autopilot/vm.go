// Package autopilot runs user-written JavaScript control policies against
// the furnace simulation. A policy defines control(state) and returns the
// slider settings for the next tick; the VM is sandboxed and every call is
// bounded by a timeout.
package autopilot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/maercaestro/furnace-commander/internal/sim"
)

// LogEntry represents a single log message from the policy script.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 250 * time.Millisecond
)

// VM wraps a goja runtime with sandbox restrictions and the control-policy
// calling convention.
type VM struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	// Log buffer visible to the caller.
	logs    []LogEntry
	logsMu  sync.Mutex
	maxLogs int

	// stopRequested is set when the script calls stop().
	stopRequested bool
}

// NewVM creates a sandboxed goja runtime with global functions injected.
func NewVM() *VM {
	vm := &VM{
		runtime: goja.New(),
		maxLogs: 500,
	}
	vm.injectGlobalFunctions()
	return vm
}

// injectGlobalFunctions registers log, stop, console.log and blocks
// dangerous globals.
func (vm *VM) injectGlobalFunctions() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		vm.logsMu.Lock()
		if len(vm.logs) >= vm.maxLogs {
			vm.logs = vm.logs[1:]
		}
		vm.logs = append(vm.logs, LogEntry{Time: time.Now(), Message: msg})
		vm.logsMu.Unlock()

		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// stop() signals the driver to end the episode.
	vm.runtime.Set("stop", func(call goja.FunctionCall) goja.Value {
		vm.mu.Lock()
		vm.stopRequested = true
		vm.mu.Unlock()
		return goja.Undefined()
	})

	// Expose the slider and band constants policies care about.
	vm.runtime.Set("STOICH_AFR", 14.7)
	vm.runtime.Set("MIN_FUEL_FLOW", sim.MinFuelFlow)
	vm.runtime.Set("MAX_FUEL_FLOW", sim.MaxFuelFlow)
	vm.runtime.Set("MIN_AIR_FUEL_RATIO", sim.MinAirFuelRatio)
	vm.runtime.Set("MAX_AIR_FUEL_RATIO", sim.MaxAirFuelRatio)

	// Math is already available in goja by default.
	// Block dangerous globals.
	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("fetch", goja.Undefined())
	vm.runtime.Set("XMLHttpRequest", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// Load runs the policy source once to register control(). Call this before
// the first Decide.
func (vm *VM) Load(source string) error {
	return vm.runWithTimeout(scriptInitTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if _, err := vm.runtime.RunString(source); err != nil {
			return fmt.Errorf("policy execution error: %w", err)
		}
		fn := vm.runtime.Get("control")
		if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
			return fmt.Errorf("control() function is not defined")
		}
		if _, ok := goja.AssertFunction(fn); !ok {
			return fmt.Errorf("control is not a function")
		}
		return nil
	})
}

// Decide calls the policy's control(state) with the current snapshot and
// returns the requested controls, clamped to slider ranges by the episode
// when applied. Fields the script omits keep the previous value.
func (vm *VM) Decide(snap sim.Snapshot) (sim.Controls, error) {
	out := snap.Controls
	err := vm.runWithTimeout(scriptCallTimeout, func() error {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		fn := vm.runtime.Get("control")
		callable, ok := goja.AssertFunction(fn)
		if !ok {
			return fmt.Errorf("control is not a function")
		}

		state := vm.runtime.NewObject()
		state.Set("tick", snap.Tick)
		state.Set("currentTemperature", snap.State.CurrentTemperature)
		state.Set("excessO2", snap.State.ExcessO2)
		state.Set("fuelFlow", snap.Controls.FuelFlow)
		state.Set("airFuelRatio", snap.Controls.AirFuelRatio)
		state.Set("targetTemperature", snap.Controls.TargetTemperature)
		state.Set("inflowTemperature", snap.Disturbances.InflowTemperature)
		state.Set("inflowRate", snap.Disturbances.InflowRate)
		state.Set("costSavings", snap.Accumulators.CostSavings.InexactFloat64())
		state.Set("cumulativeCO", snap.Accumulators.CumulativeCO)

		result, err := callable(goja.Undefined(), state)
		if err != nil {
			return fmt.Errorf("control() error: %w", err)
		}
		if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
			return nil
		}

		obj := result.ToObject(vm.runtime)
		if v := obj.Get("fuelFlow"); v != nil && !goja.IsUndefined(v) {
			out.FuelFlow = v.ToFloat()
		}
		if v := obj.Get("airFuelRatio"); v != nil && !goja.IsUndefined(v) {
			out.AirFuelRatio = v.ToFloat()
		}
		return nil
	})
	return out, err
}

// IsStopRequested returns true if stop() was called from the policy.
func (vm *VM) IsStopRequested() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stopRequested
}

// GetLogs returns a copy of the current log buffer.
func (vm *VM) GetLogs() []LogEntry {
	vm.logsMu.Lock()
	defer vm.logsMu.Unlock()
	out := make([]LogEntry, len(vm.logs))
	copy(out, vm.logs)
	return out
}

func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// Interrupt a runaway policy.
		vm.runtime.Interrupt("policy execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("policy timed out: %w", err)
			}
			return fmt.Errorf("policy timed out")
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("policy timed out")
		}
	}
}
