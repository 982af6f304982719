package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Hundemeier/go-artnet-led/colorconv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	//DefaultWriteTimeout is how long a DMX or config update waits for the pixel lock
	DefaultWriteTimeout = 100 * time.Millisecond
	//DefaultRenderTimeout is how long the render task waits for the pixel lock
	DefaultRenderTimeout = 10 * time.Millisecond
)

var (
	//ErrLockTimeout is returned if the pixel lock could not be taken in time. The operation
	//was skipped.
	ErrLockTimeout = errors.New("pixel lock timeout")
	//ErrWrongUniverse is returned for frames that are not addressed to the configured universe
	ErrWrongUniverse = errors.New("wrong universe")
	//ErrStaleSequence is returned for frames that are older than the last accepted one
	ErrStaleSequence = errors.New("stale sequence")
	//ErrShortPayload is returned if the data does not hold what the program needs
	ErrShortPayload = errors.New("payload too short")
	//ErrUnknownProgram is returned for program ids the engine does not know
	ErrUnknownProgram = errors.New("unknown program")
)

var logger = log.WithField("component", "engine")

//UniverseConfig selects the frames the node listens to
type UniverseConfig struct {
	Universe uint16
	//Shift is the number of DMX channels that are skipped before the program byte
	Shift uint16
}

//RainbowStore persists the last rainbow so it can be restored after a restart
type RainbowStore interface {
	SaveRainbow(p RainbowParams) error
}

//State is a copy of the engine state
type State struct {
	Pixels   []colorconv.RGB
	Program  Program
	Universe UniverseConfig
	Sequence uint8
}

//Engine owns the pixel buffer and the active program. DMX updates from the receiver and
//render steps from the render task both go through the same lock, which is only ever
//taken with a timeout.
type Engine struct {
	lock          *semaphore.Weighted
	writeTimeout  time.Duration
	renderTimeout time.Duration
	refresh       chan struct{}
	store         RainbowStore
	//animDelay is the rainbow step delay in ns, 0 if the active program is not animated.
	//It is read without the lock by the render task.
	animDelay atomic.Int64

	//guarded by lock
	pixels    []colorconv.RGB
	program   Program
	universe  UniverseConfig
	tracker   SequenceTracker
	lastSaved RainbowParams
}

//Option configures an Engine
type Option func(*Engine)

//WithUniverseConfig sets the universe and shift the engine starts with
func WithUniverseConfig(cfg UniverseConfig) Option {
	return func(e *Engine) { e.universe = cfg }
}

//WithSequenceTolerance sets the rollover window of the sequence check
func WithSequenceTolerance(tolerance uint8) Option {
	return func(e *Engine) { e.tracker = NewSequenceTracker(tolerance) }
}

//WithLockTimeouts overrides the lock timeouts for writers and for the render task
func WithLockTimeouts(write, render time.Duration) Option {
	return func(e *Engine) {
		e.writeTimeout = write
		e.renderTimeout = render
	}
}

//WithRainbowStore persists every new rainbow to s
func WithRainbowStore(s RainbowStore) Option {
	return func(e *Engine) { e.store = s }
}

//New creates an engine for ledCount pixels, all black, running the straight program
func New(ledCount int, opts ...Option) *Engine {
	e := &Engine{
		lock:          semaphore.NewWeighted(1),
		writeTimeout:  DefaultWriteTimeout,
		renderTimeout: DefaultRenderTimeout,
		refresh:       make(chan struct{}, 1),
		pixels:        make([]colorconv.RGB, ledCount),
		program:       Straight{},
		tracker:       NewSequenceTracker(DefaultSequenceTolerance),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

//LEDCount returns the fixed length of the pixel buffer
func (e *Engine) LEDCount() int {
	return len(e.pixels)
}

//Refresh is signalled after every change of the pixels. Multiple changes before the
//receiver reads collapse into one signal.
func (e *Engine) Refresh() <-chan struct{} {
	return e.refresh
}

//Animation returns the step delay if the active program animates on its own
func (e *Engine) Animation() (time.Duration, bool) {
	d := time.Duration(e.animDelay.Load())
	return d, d > 0
}

func (e *Engine) acquire(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.lock.Acquire(ctx, 1); err != nil {
		return ErrLockTimeout
	}
	return nil
}

func (e *Engine) release() {
	e.lock.Release(1)
}

func (e *Engine) signal() {
	select {
	case e.refresh <- struct{}{}:
	default:
	}
}

//HandleDMX applies one DMX frame. Frames for other universes and stale frames are dropped
//before the sequence is stored, the first Shift channels are skipped and the first byte
//after them selects the program.
func (e *Engine) HandleDMX(sequence uint8, universe uint16, data []byte) error {
	if err := e.acquire(e.writeTimeout); err != nil {
		logger.WithField("sequence", sequence).Error("dropping DMX frame: ", err)
		return err
	}
	saveRainbow, err := e.handleLocked(sequence, universe, data)
	e.release()

	if err != nil {
		logger.WithFields(log.Fields{
			"sequence": sequence,
			"universe": universe,
			"length":   len(data),
		}).Debug("ignoring DMX frame: ", err)
		return err
	}
	e.signal()
	if saveRainbow != nil {
		e.saveRainbow(*saveRainbow)
	}
	return nil
}

func (e *Engine) handleLocked(sequence uint8, universe uint16, data []byte) (*RainbowParams, error) {
	if universe != e.universe.Universe {
		return nil, fmt.Errorf("%w: got %d, listening on %d", ErrWrongUniverse, universe, e.universe.Universe)
	}
	if !e.tracker.Check(sequence) {
		return nil, fmt.Errorf("%w: got %d after %d", ErrStaleSequence, sequence, e.tracker.Previous())
	}
	if len(data) <= int(e.universe.Shift) {
		return nil, fmt.Errorf("%w: %d channels with shift %d", ErrShortPayload, len(data), e.universe.Shift)
	}
	return e.apply(data[e.universe.Shift:])
}

//apply runs the program selected by data[0]. It returns the rainbow params if they have to
//be persisted.
func (e *Engine) apply(data []byte) (*RainbowParams, error) {
	id, body := ProgramID(data[0]), data[1:]
	switch id {
	case ProgramStraight:
		writeStraight(e.pixels, body)
		e.setProgram(Straight{})
	case ProgramChain, ProgramChainReversed:
		if len(body) < 3 {
			return nil, fmt.Errorf("%w: %v needs 3 bytes, got %d", ErrShortPayload, id, len(body))
		}
		if id == ProgramChain {
			pushHead(e.pixels, colorconv.RGBFromBytes(body))
			e.setProgram(Chain{})
		} else {
			pushTail(e.pixels, colorconv.RGBFromBytes(body))
			e.setProgram(ChainReversed{})
		}
	case ProgramRainbow:
		p, err := ParseRainbowParams(body)
		if err != nil {
			return nil, err
		}
		r := e.startRainbow(p)
		if r.RainbowParams != e.lastSaved {
			e.lastSaved = r.RainbowParams
			saved := e.lastSaved
			return &saved, nil
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownProgram, uint8(id))
	}
	return nil, nil
}

//startRainbow keeps the phase of the running rainbow if the change id matches
func (e *Engine) startRainbow(p RainbowParams) *Rainbow {
	r, running := e.program.(*Rainbow)
	if running && p.ChangeID != 0 && p.ChangeID == r.ChangeID {
		r.retune(p)
		logger.WithField("rainbow", p).Trace("rainbow retuned")
	} else {
		r = newRainbow(p)
		logger.WithField("rainbow", p).Debug("rainbow started")
	}
	r.render(e.pixels)
	e.setProgram(r)
	return r
}

func (e *Engine) setProgram(p Program) {
	e.program = p
	if r, ok := p.(*Rainbow); ok {
		e.animDelay.Store(int64(r.delay()))
	} else {
		e.animDelay.Store(0)
	}
}

func (e *Engine) saveRainbow(p RainbowParams) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveRainbow(p); err != nil {
		logger.Error("could not save rainbow: ", err)
	}
}

//RestoreRainbow starts the rainbow that was running before the last shutdown
func (e *Engine) RestoreRainbow(p RainbowParams) error {
	if err := e.acquire(e.writeTimeout); err != nil {
		return err
	}
	e.startRainbow(p)
	e.lastSaved = p
	e.release()
	e.signal()
	logger.WithField("rainbow", p).Info("restored rainbow")
	return nil
}

//Tick advances a running rainbow by one step and recomputes all pixels. It does nothing for
//the other programs.
func (e *Engine) Tick() error {
	if err := e.acquire(e.renderTimeout); err != nil {
		return err
	}
	defer e.release()
	if r, ok := e.program.(*Rainbow); ok {
		r.step()
		r.render(e.pixels)
	}
	return nil
}

//Frame copies the pixels as RGB byte triples into dst, which must hold 3*LEDCount bytes.
//Only the copy happens under the lock, so the caller can write dst to the hardware afterwards.
func (e *Engine) Frame(dst []byte) error {
	if len(dst) < 3*len(e.pixels) {
		return fmt.Errorf("frame buffer too small: %d < %d", len(dst), 3*len(e.pixels))
	}
	if err := e.acquire(e.renderTimeout); err != nil {
		return err
	}
	for i, p := range e.pixels {
		dst[i*3], dst[i*3+1], dst[i*3+2] = p.R, p.G, p.B
	}
	e.release()
	return nil
}

//SetUniverseConfig changes the universe and shift for all following frames
func (e *Engine) SetUniverseConfig(cfg UniverseConfig) error {
	if err := e.acquire(e.writeTimeout); err != nil {
		logger.Error("could not update universe config: ", err)
		return err
	}
	e.universe = cfg
	e.release()
	logger.WithFields(log.Fields{"universe": cfg.Universe, "shift": cfg.Shift}).Info("universe config changed")
	return nil
}

//UniverseConfig returns the universe and shift the engine listens to
func (e *Engine) UniverseConfig() (UniverseConfig, error) {
	if err := e.acquire(e.writeTimeout); err != nil {
		return UniverseConfig{}, err
	}
	defer e.release()
	return e.universe, nil
}

//Snapshot returns a copy of the complete state
func (e *Engine) Snapshot() (State, error) {
	if err := e.acquire(e.writeTimeout); err != nil {
		return State{}, err
	}
	defer e.release()
	s := State{
		Pixels:   append([]colorconv.RGB(nil), e.pixels...),
		Program:  e.program,
		Universe: e.universe,
		Sequence: e.tracker.Previous(),
	}
	if r, ok := e.program.(*Rainbow); ok {
		cp := *r
		s.Program = &cp
	}
	return s, nil
}
