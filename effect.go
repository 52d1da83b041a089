package mixcore

import "mixcore/pool"

// Effect is a per-source DSP unit with a parameter mailbox, grounded on
// original_source/insound/core/Effect.h/.cpp. Process receives interleaved
// stereo float32 input/output slices of the same length (count samples, a
// whole number of stereo frames and so always even; count is not rounded up
// to a multiple of 4) and reports whether it wrote to out: false
// ("bypassed") lets the caller skip the buffer swap entirely, the zero-cost
// path an unmodified pan/volume effect takes.
type Effect interface {
	Process(in, out []float32, count int) bool
}

// paramWriter is implemented by effects whose parameters are written through
// the sendFloat/sendInt/sendString mailbox (applied on the mix thread via an
// EffectCommand), mirroring Effect::receiveFloat/receiveInt/receiveString.
type paramWriter interface {
	receiveFloat(param int, value float32)
	receiveInt(param int, value int32)
	receiveString(param int, value string)
}

// EffectCommand carries one parameter write, applied to the target effect on
// the mix thread. Mailbox writes are enqueued on the deferred queue per
// spec.md §4.2's "effect parameter writes" policy.
type EffectCommand struct {
	Target pool.Handle[Effect]
	Param  int
	Float  *float32
	Int    *int32
	String *string
}

func (c EffectCommand) apply(e *Engine) {
	eff, ok := pool.Get(e.pool, c.Target)
	if !ok {
		return
	}
	w, ok := eff.(paramWriter)
	if !ok {
		return
	}
	switch {
	case c.Float != nil:
		w.receiveFloat(c.Param, *c.Float)
	case c.Int != nil:
		w.receiveInt(c.Param, *c.Int)
	case c.String != nil:
		w.receiveString(c.Param, *c.String)
	}
}

func sendFloat(e *Engine, target pool.Handle[Effect], param int, value float32) {
	e.pushCommand(EffectCommand{Target: target, Param: param, Float: &value})
}

func sendInt(e *Engine, target pool.Handle[Effect], param int, value int32) {
	e.pushCommand(EffectCommand{Target: target, Param: param, Int: &value})
}
