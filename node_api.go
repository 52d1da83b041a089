package mixcore

import "mixcore/pool"

// Panner returns the node's built-in pan effect handle (effects[0] per
// spec.md §3), and whether h is currently a valid node.
func (e *Engine) Panner(h pool.Handle[Node]) (pool.Handle[Effect], bool) {
	n, ok := pool.Get(e.pool, h)
	if !ok {
		return pool.Handle[Effect]{}, false
	}
	return n.base().panner, true
}

// VolumeEffectHandle returns the node's built-in volume effect handle
// (effects[1] per spec.md §3).
func (e *Engine) VolumeEffectHandle(h pool.Handle[Node]) (pool.Handle[Effect], bool) {
	n, ok := pool.Get(e.pool, h)
	if !ok {
		return pool.Handle[Effect]{}, false
	}
	return n.base().volume, true
}

// SetPan sends both pan gains to target through the effect mailbox, a
// deferred command per spec.md §4.2's queue-choice policy (effect parameter
// writes are deferred; only SetPause/AddFadePoint/AddFadeTo/RemoveFadePoint/
// SetPosition are immediate).
func SetPan(e *Engine, target pool.Handle[Effect], left, right float32) {
	e.PushCommand(EffectCommand{Target: target, Param: ParamPanLeft, Float: &left})
	e.PushCommand(EffectCommand{Target: target, Param: ParamPanRight, Float: &right})
}

// SetVolume sends a volume write through the effect mailbox.
func SetVolume(e *Engine, target pool.Handle[Effect], volume float32) {
	e.PushCommand(EffectCommand{Target: target, Param: ParamVolume, Float: &volume})
}

// PauseAt schedules a sample-accurate pause, an immediate command per
// spec.md §4.2.
func PauseAt(e *Engine, target pool.Handle[Node], clock uint32, releaseOnPause bool) {
	c := int64(clock)
	e.PushImmediateCommand(SetPauseCommand{Target: target, PauseClock: c, UnpauseClock: -1, ReleaseOnPause: releaseOnPause})
}

// UnpauseAt schedules a sample-accurate unpause, an immediate command per
// spec.md §4.2.
func UnpauseAt(e *Engine, target pool.Handle[Node], clock uint32) {
	c := int64(clock)
	e.PushImmediateCommand(SetPauseCommand{Target: target, PauseClock: -1, UnpauseClock: c})
}

// AddFadeTo schedules a linear fade to value by clock, an immediate
// command per spec.md §4.2.
func AddFadeTo(e *Engine, target pool.Handle[Node], value float32, clock uint32) {
	e.PushImmediateCommand(AddFadeToCommand{Target: target, Value: value, Clock: clock})
}

// AddEffect appends eff to target's effect chain, a deferred command per
// spec.md §4.2's queue-choice policy.
func AddEffect(e *Engine, target pool.Handle[Node], eff Effect) (pool.Handle[Effect], error) {
	h, err := pool.Allocate[Effect](e.pool, eff, nil)
	if err != nil {
		return pool.Handle[Effect]{}, &Error{Kind: KindOutOfMemory, Op: "AddEffect", Err: err}
	}
	e.PushCommand(AddEffectCommand{Target: target, Effect: h})
	return h, nil
}

// IsValid reports whether h still refers to a live node, per spec.md §8's
// handle-validity invariant.
func (e *Engine) IsValid(h pool.Handle[Node]) bool { return h.IsValid() }

// Release enqueues target for release (recursive release for a bus), a
// deferred command per spec.md §4.2.
func Release(e *Engine, target pool.Handle[Node], recursive bool) {
	e.PushCommand(ReleaseSourceCommand{Target: target, Recursive: recursive})
}
