package machine

import (
	"context"
	"errors"
	"time"

	"github.com/tinyrange/rvemu/internal/bus"
	"github.com/tinyrange/rvemu/internal/hart"
)

// Monitor receives a snapshot callback from the cycle loop itself; it is
// the debug dashboard's hook into a running Machine (see
// internal/monitor). It must not mutate the Hart it is given, and must
// return promptly since Refresh runs inline on the cycle loop, not on a
// separate goroutine.
type Monitor interface {
	Refresh(h *hart.Hart)
}

// RunResult reports how a Run terminated.
type RunResult struct {
	ExitCode int
	Action   bus.SysconAction
}

const monitorRefreshInterval = 100 * time.Millisecond

// Run drives the cycle loop until SYSCON requests poweroff/reboot, ctx is
// canceled, maxCycles is reached (0 means unbounded), or Step returns an
// error, which Run returns to the caller (a *hart.FatalError also sets
// the result's ExitCode to its code). hart state is
// owned by this loop and never aliased to another goroutine: a Monitor,
// if given, is refreshed inline between cycles once monitorRefreshInterval
// of wall-clock time has passed, so it only ever observes the hart
// between completed Steps, never mid-mutation.
func (m *Machine) Run(ctx context.Context, maxCycles uint64, mon Monitor) (RunResult, error) {
	var result RunResult
	var cycles uint64
	var lastRefresh time.Time

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return result, nil
			}
			return result, ctx.Err()
		default:
		}

		m.CLINT.Tick()

		if err := m.Hart.Step(); err != nil {
			var fatal *hart.FatalError
			if errors.As(err, &fatal) {
				result.ExitCode = fatal.Code
				return result, err
			}
			return result, err
		}

		if action := m.Syscon.Pending(); action != bus.SysconActionNone {
			result.Action = action
			result.ExitCode = 0
			return result, nil
		}

		if mon != nil {
			if now := time.Now(); now.Sub(lastRefresh) >= monitorRefreshInterval {
				mon.Refresh(m.Hart)
				lastRefresh = now
			}
		}

		cycles++
		if maxCycles != 0 && cycles >= maxCycles {
			return result, nil
		}
	}
}
