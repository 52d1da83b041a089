package mixcore

import "mixcore/pool"

// Command is the interface every graph mutation implements, replacing the
// source repo's tagged union over {Engine, Effect, Source, PCMSource, Bus}
// command structs (spec.md §4.2, §9): each concrete Command carries its own
// target handle and performs its own validity check inside apply, so an
// invalid target (released between enqueue and drain) is silently skipped
// rather than treated as an error, per spec.md §4.2's dispatch contract.
// Commands are value types and are not retained once applied.
type Command interface {
	apply(e *Engine)
}

// nodeCommand fetches the live Node for target, applying fn to it and
// silently doing nothing if the handle is stale. Shared by every command
// below to avoid repeating the validity guard at each call site.
func nodeCommand(e *Engine, target pool.Handle[Node], fn func(Node)) {
	n, ok := pool.Get(e.pool, target)
	if !ok {
		return
	}
	fn(n)
}

// AppendSourceCommand attaches Child to Bus, per spec.md §4.4: if Child is
// itself a Bus currently parented elsewhere, it is first detached from its
// old parent (the re-parenting/cycle-prevention mechanism).
type AppendSourceCommand struct {
	Bus   pool.Handle[Node]
	Child pool.Handle[Node]
}

func (c AppendSourceCommand) apply(e *Engine) {
	nodeCommand(e, c.Bus, func(n Node) {
		b, ok := n.(*bus)
		if !ok {
			return
		}
		b.applyAppendSource(e, c.Child)
	})
}

// RemoveSourceCommand detaches Child from Bus by handle equality.
type RemoveSourceCommand struct {
	Bus   pool.Handle[Node]
	Child pool.Handle[Node]
}

func (c RemoveSourceCommand) apply(e *Engine) {
	nodeCommand(e, c.Bus, func(n Node) {
		b, ok := n.(*bus)
		if !ok {
			return
		}
		b.applyRemoveSource(c.Child)
	})
}

// ReleaseSourceCommand marks Target (and, if it is a Bus and Recursive is
// set, its children) for discard, per spec.md §4.7's release/releaseRaw.
type ReleaseSourceCommand struct {
	Target    pool.Handle[Node]
	Recursive bool
}

func (c ReleaseSourceCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		_ = n.release(c.Recursive)
		e.discardFlag.Store(true)
	})
}

// AddEffectCommand appends Effect to Target's effect chain at the end.
type AddEffectCommand struct {
	Target pool.Handle[Node]
	Effect pool.Handle[Effect]
}

func (c AddEffectCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		b := n.base()
		b.effects = append(b.effects, c.Effect)
	})
}

// RemoveEffectCommand removes one effect handle from Target's chain.
type RemoveEffectCommand struct {
	Target pool.Handle[Node]
	Effect pool.Handle[Effect]
}

func (c RemoveEffectCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		b := n.base()
		for i, h := range b.effects {
			if h.Equal(c.Effect) {
				b.effects = append(b.effects[:i], b.effects[i+1:]...)
				return
			}
		}
	})
}

// SetPauseCommand schedules a pause and/or unpause clock on Target, per
// spec.md §4.2's pause/unpause semantics.
type SetPauseCommand struct {
	Target         pool.Handle[Node]
	PauseClock     int64 // -1 => leave unchanged
	UnpauseClock   int64 // -1 => leave unchanged
	ReleaseOnPause bool
}

func (c SetPauseCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		n.base().setPause(c.PauseClock, c.UnpauseClock, c.ReleaseOnPause)
	})
}

// AddFadePointCommand inserts or replaces one fade envelope point.
type AddFadePointCommand struct {
	Target pool.Handle[Node]
	Clock  uint32
	Value  float32
}

func (c AddFadePointCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		n.base().addFadePoint(FadePoint{Clock: c.Clock, Value: c.Value})
	})
}

// AddFadeToCommand schedules a linear fade to Value by Clock, per spec.md
// §4.2's AddFadeTo.
type AddFadeToCommand struct {
	Target pool.Handle[Node]
	Value  float32
	Clock  uint32
}

func (c AddFadeToCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		n.base().fadeTo(c.Value, c.Clock)
	})
}

// RemoveFadePointCommand drops fade points with clock in [Start, End).
type RemoveFadePointCommand struct {
	Target     pool.Handle[Node]
	Start, End uint32
}

func (c RemoveFadePointCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		n.base().removeFadePoints(c.Start, c.End)
	})
}

// SetPositionCommand seeks a PCMSource or StreamSource. Silently ignored
// against a Target that is not a seekable source.
type SetPositionCommand struct {
	Target   pool.Handle[Node]
	Position float64 // fractional frame index
}

func (c SetPositionCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		if p, ok := n.(*pcmSource); ok {
			p.position = c.Position
		} else if s, ok := n.(*streamSource); ok {
			_ = s.SetPosition(PCMFrames, c.Position)
		}
	})
}

// SetSpeedCommand sets PCMSource playback speed.
type SetSpeedCommand struct {
	Target pool.Handle[Node]
	Speed  float32
}

func (c SetSpeedCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		if p, ok := n.(*pcmSource); ok {
			p.speed = c.Speed
		}
	})
}

// SetLoopingCommand sets PCMSource looping.
type SetLoopingCommand struct {
	Target  pool.Handle[Node]
	Looping bool
}

func (c SetLoopingCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		if p, ok := n.(*pcmSource); ok {
			p.looping = c.Looping
		}
	})
}

// SetOneShotCommand sets PCMSource one-shot behavior.
type SetOneShotCommand struct {
	Target  pool.Handle[Node]
	OneShot bool
}

func (c SetOneShotCommand) apply(e *Engine) {
	nodeCommand(e, c.Target, func(n Node) {
		if p, ok := n.(*pcmSource); ok {
			p.oneShot = c.OneShot
		}
	})
}
