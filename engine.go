package mixcore

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"mixcore/pool"
)

// EngineOptions configures a new Engine. The zero value is usable: it opens
// with a nil Logger (Engine falls back to log.Default()).
type EngineOptions struct {
	Logger *log.Logger
}

// Engine owns the master bus, the object pool, and both command queues, and
// drives the device's pull callback, per spec.md §3/§4.7.
type Engine struct {
	mu sync.Mutex // the mix mutex: guards device I/O, Update, PlaySound, CreateBus, Close

	deferredMu sync.Mutex
	deferred   []Command

	immediateMu sync.Mutex
	immediate   []Command

	pool   *pool.MultiPool
	master pool.Handle[Node]

	busHandleMu sync.Mutex
	busHandles  map[*bus]pool.Handle[Node]

	clock       uint32
	discardFlag atomic.Bool

	device Device
	log    *log.Logger

	sampleRate   int
	bufferFrames int
	isOpen       bool
}

// NewEngine constructs an Engine. It must be opened with Open before use.
func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		pool:       pool.NewMultiPool(),
		busHandles: make(map[*bus]pool.Handle[Node]),
		log:        logger,
	}
}

// Open opens device at sampleRate/bufferFrames, allocates the master bus,
// and resumes the device, per spec.md §4.7.
func (e *Engine) Open(sampleRate, bufferFrames int, device Device) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isOpen {
		return nil
	}

	e.sampleRate = sampleRate
	e.bufferFrames = bufferFrames
	e.device = device

	masterBus := newBus(e, true)
	h, err := pool.Allocate[Node](e.pool, masterBus, nil)
	if err != nil {
		return &Error{Kind: KindEngineUninit, Op: "Engine.Open", Err: err}
	}
	e.master = h
	e.setBusHandle(masterBus, h)

	if err := device.Open(sampleRate, bufferFrames, e.pullCallback); err != nil {
		return &Error{Kind: KindBackend, Op: "Engine.Open", Err: err}
	}
	if err := device.Resume(); err != nil {
		return &Error{Kind: KindBackend, Op: "Engine.Open", Err: err}
	}
	e.isOpen = true
	e.log.Debug("engine opened", "sampleRate", sampleRate, "bufferFrames", bufferFrames)
	return nil
}

// Close implements spec.md §4.7's close: under the mix lock, recursively
// release the master bus, flush both queues directly (bypassing the normal
// Update path), sweep removals, destroy the master, shut the device. Safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isOpen {
		return nil
	}

	masterNode, _ := pool.Get(e.pool, e.master)
	if mb, ok := masterNode.(*bus); ok {
		mb.isMaster = false
		_ = mb.release(true)
		e.drainQueueLocked(&e.deferredMu, &e.deferred)
		e.drainQueueLocked(&e.immediateMu, &e.immediate)
		mb.processRemovals(e)
		e.destroyNode(e.master)
	}

	e.clock = 0
	var err error
	if e.device != nil {
		if cerr := e.device.Close(); cerr != nil {
			err = &Error{Kind: KindBackend, Op: "Engine.Close", Err: cerr}
		}
	}
	e.isOpen = false
	e.log.Debug("engine closed")
	return err
}

// PlaySound implements spec.md §4.7's play_sound: synchronously (not via a
// deferred command) allocates a PCMSource at the target bus's current
// clock and attaches it, so it is guaranteed audible on the very next pull.
func (e *Engine) PlaySound(buf *SoundBuffer, paused, looping, oneShot bool, targetBus pool.Handle[Node]) (pool.Handle[Node], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !targetBus.IsValid() {
		targetBus = e.master
	}
	busNode, ok := pool.Get(e.pool, targetBus)
	if !ok {
		return pool.Handle[Node]{}, invalidHandle("Engine.PlaySound")
	}
	b, ok := busNode.(*bus)
	if !ok {
		return pool.Handle[Node]{}, logicErr("Engine.PlaySound", "target is not a bus")
	}

	src := newPCMSource(e, buf, looping, oneShot)
	src.parentClock = b.clock
	src.paused = paused

	h, err := pool.Allocate[Node](e.pool, src, func(n *Node) error {
		if ps, ok := (*n).(*pcmSource); ok {
			ps.panner, _ = pool.Allocate[Effect](e.pool, Effect(NewPanEffect()), nil)
			ps.volume, _ = pool.Allocate[Effect](e.pool, Effect(NewVolumeEffect()), nil)
			ps.effects = append(ps.effects, ps.panner, ps.volume)
		}
		return nil
	})
	if err != nil {
		return pool.Handle[Node]{}, &Error{Kind: KindOutOfMemory, Op: "Engine.PlaySound", Err: err}
	}

	b.applyAppendSource(e, h)
	return h, nil
}

// PlayStream is PlaySound's streaming counterpart: synchronously attaches a
// StreamSource wrapping dec to targetBus, so it is guaranteed audible on the
// very next pull. dec must already be open.
func (e *Engine) PlayStream(dec Decoder, paused bool, targetBus pool.Handle[Node]) (pool.Handle[Node], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !targetBus.IsValid() {
		targetBus = e.master
	}
	busNode, ok := pool.Get(e.pool, targetBus)
	if !ok {
		return pool.Handle[Node]{}, invalidHandle("Engine.PlayStream")
	}
	b, ok := busNode.(*bus)
	if !ok {
		return pool.Handle[Node]{}, logicErr("Engine.PlayStream", "target is not a bus")
	}

	src := newStreamSource(e, dec)
	src.parentClock = b.clock
	src.paused = paused

	h, err := pool.Allocate[Node](e.pool, Node(src), func(n *Node) error {
		if ss, ok := (*n).(*streamSource); ok {
			ss.panner, _ = pool.Allocate[Effect](e.pool, Effect(NewPanEffect()), nil)
			ss.volume, _ = pool.Allocate[Effect](e.pool, Effect(NewVolumeEffect()), nil)
			ss.effects = append(ss.effects, ss.panner, ss.volume)
		}
		return nil
	})
	if err != nil {
		return pool.Handle[Node]{}, &Error{Kind: KindOutOfMemory, Op: "Engine.PlayStream", Err: err}
	}

	b.applyAppendSource(e, h)
	return h, nil
}

// CreateBus implements spec.md §4.7's create_bus: allocates a bus and,
// unless it is the master, enqueues its attachment to outputBus (or master
// if outputBus is invalid) as a deferred command.
func (e *Engine) CreateBus(paused bool, outputBus pool.Handle[Node], isMaster bool) (pool.Handle[Node], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := newBus(e, isMaster)
	b.paused = paused
	if !isMaster {
		if parentNode, ok := pool.Get(e.pool, outputBus); ok {
			if pb, ok := parentNode.(*bus); ok {
				b.parentClock = pb.clock
			}
		} else {
			outputBus = e.master
			if parentNode, ok := pool.Get(e.pool, e.master); ok {
				if pb, ok := parentNode.(*bus); ok {
					b.parentClock = pb.clock
				}
			}
		}
	}

	h, err := pool.Allocate[Node](e.pool, Node(b), nil)
	if err != nil {
		return pool.Handle[Node]{}, &Error{Kind: KindOutOfMemory, Op: "Engine.CreateBus", Err: err}
	}
	e.setBusHandle(b, h)

	if !isMaster {
		target := outputBus
		if !target.IsValid() {
			target = e.master
		}
		e.PushCommand(AppendSourceCommand{Bus: target, Child: h})
	}
	return h, nil
}

// PushCommand enqueues c on the deferred queue, drained inside Update.
func (e *Engine) PushCommand(c Command) {
	e.deferredMu.Lock()
	defer e.deferredMu.Unlock()
	e.deferred = append(e.deferred, c)
}

func (e *Engine) pushCommand(c Command) { e.PushCommand(c) }

// PushImmediateCommand enqueues c on the immediate queue, drained at the
// top of the very next audio pull.
func (e *Engine) PushImmediateCommand(c Command) {
	e.immediateMu.Lock()
	defer e.immediateMu.Unlock()
	e.immediate = append(e.immediate, c)
}

// Update implements spec.md §4.7's update(): under the mix lock, drain the
// deferred queue; if the discard flag is set, sweep removals on the master
// bus and clear the flag.
func (e *Engine) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isOpen {
		return &Error{Kind: KindEngineUninit, Op: "Engine.Update"}
	}

	e.drainQueueLocked(&e.deferredMu, &e.deferred)

	if e.discardFlag.Load() {
		if masterNode, ok := pool.Get(e.pool, e.master); ok {
			if mb, ok := masterNode.(*bus); ok {
				mb.processRemovals(e)
			}
		}
		e.discardFlag.Store(false)
	}
	return nil
}

func (e *Engine) drainQueueLocked(mu *sync.Mutex, queue *[]Command) {
	mu.Lock()
	cmds := *queue
	*queue = nil
	mu.Unlock()
	for _, c := range cmds {
		c.apply(e)
	}
}

// pullCallback is invoked by the device on its own realtime thread, per
// spec.md §4.7's pull callback: drain the immediate queue, read N frames
// from the master bus, advance the engine clock, propagate it through the
// tree, and copy the master's buffer into out.
func (e *Engine) pullCallback(out []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.drainQueueLocked(&e.immediateMu, &e.immediate)

	frameCount := len(out) / samplesPerFrame
	masterNode, ok := pool.Get(e.pool, e.master)
	if !ok {
		clear(out)
		return
	}
	mb := masterNode.(*bus)
	mixed := mb.Read(frameCount)
	copy(out, mixed)

	e.clock += uint32(frameCount)
	mb.updateParentClock(e.clock)
}

// destroyNode returns h's slot to the pool, running the node's own release
// hook (a no-op if already released) first.
func (e *Engine) destroyNode(h pool.Handle[Node]) {
	if b, ok := pool.Get(e.pool, h); ok {
		_ = b.release(false)
		if bb, isBus := b.(*bus); isBus {
			e.busHandleMu.Lock()
			delete(e.busHandles, bb)
			e.busHandleMu.Unlock()
		}
	}
	pool.Deallocate(e.pool, h, nil)
}

func (e *Engine) setBusHandle(b *bus, h pool.Handle[Node]) {
	e.busHandleMu.Lock()
	defer e.busHandleMu.Unlock()
	e.busHandles[b] = h
}

// handleForBus returns the handle currently referencing b, the Go analogue
// of original_source's try_find-by-pointer (used only for bus
// re-parenting).
func (e *Engine) handleForBus(b *bus) pool.Handle[Node] {
	e.busHandleMu.Lock()
	defer e.busHandleMu.Unlock()
	return e.busHandles[b]
}

// Master returns the handle of the master bus.
func (e *Engine) Master() pool.Handle[Node] { return e.master }

// Clock returns the engine's current sample clock.
func (e *Engine) Clock() uint32 { return e.clock }
