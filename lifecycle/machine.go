package lifecycle

import (
	"github.com/felixgeelhaar/statekit"
	"github.com/midbel/crimeviz"
)

type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLayingOut     Phase = "laying_out"
	PhaseRendered      Phase = "rendered"
	PhaseDegraded      Phase = "degraded"
	PhaseTornDown      Phase = "torn_down"
)

const (
	stateUninitialized = statekit.StateID(PhaseUninitialized)
	stateLayingOut     = statekit.StateID(PhaseLayingOut)
	stateRendered      = statekit.StateID(PhaseRendered)
	stateDegraded      = statekit.StateID(PhaseDegraded)
	stateTornDown      = statekit.StateID(PhaseTornDown)
)

const (
	eventLayout  statekit.EventType = "LAYOUT"
	eventDone    statekit.EventType = "DONE"
	eventFail    statekit.EventType = "FAIL"
	eventDispose statekit.EventType = "DISPOSE"
)

// Progress is the context carried by the state machine of an instance.
type Progress struct {
	Passes   int
	Failures int
	Size     crimeviz.Budget
}

func newMachine() (*statekit.MachineConfig[Progress], error) {
	return statekit.NewMachine[Progress]("chart").
		WithInitial(stateUninitialized).
		WithContext(Progress{}).
		WithAction("recordSize", recordSize).
		WithAction("countPass", countPass).
		WithAction("countFailure", countFailure).
		State(stateUninitialized).
			On(eventLayout).Target(stateLayingOut).Do("recordSize").
			On(eventDispose).Target(stateTornDown).
			Done().
		State(stateLayingOut).
			On(eventDone).Target(stateRendered).Do("countPass").
			On(eventFail).Target(stateDegraded).Do("countFailure").
			On(eventDispose).Target(stateTornDown).
			Done().
		State(stateRendered).
			On(eventLayout).Target(stateLayingOut).Do("recordSize").
			On(eventDispose).Target(stateTornDown).
			Done().
		State(stateDegraded).
			On(eventLayout).Target(stateLayingOut).Do("recordSize").
			On(eventDispose).Target(stateTornDown).
			Done().
		State(stateTornDown).
			Final().
			Done().
		Build()
}

func recordSize(ctx *Progress, event statekit.Event) {
	if b, ok := event.Payload.(crimeviz.Budget); ok {
		ctx.Size = b
	}
}

func countPass(ctx *Progress, _ statekit.Event) {
	ctx.Passes++
}

func countFailure(ctx *Progress, _ statekit.Event) {
	ctx.Failures++
}
