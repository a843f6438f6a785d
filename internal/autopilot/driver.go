package autopilot

import (
	"context"
	"fmt"

	"github.com/maercaestro/furnace-commander/internal/sim"
)

// Run drives an episode under a loaded policy for at most maxTicks,
// stepping as fast as the policy allows rather than on the wall-clock tick
// period. The policy sees each snapshot and sets the next tick's controls;
// calling stop() ends the episode early.
func Run(ctx context.Context, e *sim.Episode, vm *VM, maxTicks int) (sim.Summary, error) {
	if maxTicks <= 0 {
		maxTicks = 600
	}

	for i := 0; i < maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		snap := e.Step()

		controls, err := vm.Decide(snap)
		if err != nil {
			return sim.Summary{}, fmt.Errorf("tick %d: %w", snap.Tick, err)
		}
		// Target temperature belongs to the episode setup, not the policy.
		controls.TargetTemperature = snap.Controls.TargetTemperature
		e.SetControls(controls)

		if vm.IsStopRequested() {
			break
		}
	}

	return e.Finish()
}
