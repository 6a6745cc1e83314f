package engine

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/framework/module"
	"github.com/justyntemme/rackgo/pkg/framework/param"
	"github.com/justyntemme/rackgo/pkg/framework/plugin"
)

type portKey struct {
	moduleID int64
	portID   int
}

// smoothRequest is a queued param write. A settled request stops any
// smoothing of the param and stores value again.
type smoothRequest struct {
	moduleID int64
	paramID  int
	value    float64
	settled  bool
}

// Engine owns a patch and advances it. All methods are safe for concurrent
// use. Structural edits wait for at most one block; param writes and lookups
// never wait.
type Engine struct {
	cfg      Config
	log      *debug.Logger
	registry *plugin.Registry
	meter    *debug.LoadMeter

	// mu is held shared by Step for a whole block and exclusively by edits.
	mu     sync.RWMutex
	stepMu sync.Mutex

	// guarded by mu
	slots          []*slot
	byID           map[int64]*slot
	cables         []*Cable
	cablesByID     map[int64]*Cable
	inputCables    map[portKey][]*Cable
	handles        map[*module.ParamHandle]struct{}
	handlesByOwner map[int64][]*module.ParamHandle
	nextModuleID   int64
	nextCableID    int64
	threads        int
	dirty          atomic.Bool

	// lock-free views, replaced wholesale under mu
	moduleView atomic.Pointer[map[int64]*module.Module]
	handleView atomic.Pointer[map[module.HandleTarget]*module.ParamHandle]

	// owned by the goroutine in Step
	pool   *pool
	closed bool

	pendMu  sync.Mutex
	pending []smoothRequest
	spare   []smoothRequest

	sampleRate atomic.Uint64
	frame      atomic.Int64
	blockFrame atomic.Int64
	blockTime  atomic.Int64
	meterOn    atomic.Bool
}

var _ module.Host = (*Engine)(nil)

// New creates an empty engine. Call Close to stop its workers.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.SmoothingLambda <= 0 {
		cfg.SmoothingLambda = param.DefaultLambda
	}
	e := &Engine{
		cfg:            cfg,
		byID:           make(map[int64]*slot),
		cablesByID:     make(map[int64]*Cable),
		inputCables:    make(map[portKey][]*Cable),
		handles:        make(map[*module.ParamHandle]struct{}),
		handlesByOwner: make(map[int64][]*module.ParamHandle),
		nextModuleID:   1,
		nextCableID:    1,
		threads:        cfg.threads(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = debug.Default().Named("engine")
	}
	if e.meter == nil {
		e.meter = debug.NewLoadMeter(debug.NewProfiler(1000), "block")
	}
	e.sampleRate.Store(math.Float64bits(cfg.SampleRate))
	e.meterOn.Store(cfg.CPUMeter)
	e.publishModules()
	e.publishHandles()
	e.dirty.Store(true)
	return e
}

// Close stops the worker pool. Step fails afterwards.
func (e *Engine) Close() {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.pool != nil {
		e.pool.stop()
		e.pool = nil
	}
}

// Step advances the patch by frames frames. It returns the faults raised by
// module code during the block joined into one error, or nil. Faulted modules
// are already bypassed when Step returns.
func (e *Engine) Step(frames int) error {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if frames <= 0 {
		return nil
	}

	start := time.Now()
	e.mu.RLock()
	defer e.mu.RUnlock()

	e.apply()

	sampleRate := e.SampleRate()
	first := e.frame.Load()
	e.blockFrame.Store(first)
	e.blockTime.Store(start.UnixNano())

	j := job{
		frames:     frames,
		start:      first,
		sampleRate: sampleRate,
		coef:       param.Coefficient(e.cfg.SmoothingLambda, 1/sampleRate),
		meter:      e.meterOn.Load(),
	}
	e.pool.runBlock(j)
	e.frame.Add(int64(frames))

	if j.meter {
		e.updateCPUTimes(frames)
	}
	e.meter.Block(frames, sampleRate, time.Since(start))

	faults := e.pool.collectFaults()
	if len(faults) == 0 {
		return nil
	}
	errs := make([]error, len(faults))
	for i, f := range faults {
		if s := e.byID[f.ModuleID]; s != nil {
			f.Model = e.modelName(s.m)
		}
		e.log.Warn("%v", f)
		errs[i] = f
	}
	return errors.Join(errs...)
}

// apply commits everything staged since the last block. Called from Step with
// the shared lock held.
func (e *Engine) apply() {
	if e.dirty.Swap(false) {
		if e.pool == nil || e.pool.size() != e.threads {
			if e.pool != nil {
				e.pool.stop()
			}
			e.pool = newPool(e.threads)
		}
		e.pool.setPlans(e.partition(e.pool.size()))
	}
	e.resolveExpanders()
	e.drainSmoothing()
}

func (e *Engine) updateCPUTimes(frames int) {
	const lambda = 0.1
	for _, s := range e.slots {
		perFrame := s.meterTime.Seconds() / float64(frames)
		s.meterTime = 0
		cpu := s.m.CPUTime()
		s.m.SetCPUTime(cpu + (perFrame-cpu)*lambda)
	}
}

// SetCPUMeter enables or disables per-module timing.
func (e *Engine) SetCPUMeter(on bool) {
	e.meterOn.Store(on)
}

// Profile is a snapshot of block timings.
type Profile struct {
	Block debug.Stats
	// Load is processing time over real time, smoothed across blocks.
	Load float64
}

// Profile returns block timing statistics.
func (e *Engine) Profile() Profile {
	return Profile{Block: e.meter.Stats(), Load: e.meter.Load()}
}

// SampleRate returns the sample rate in Hz.
func (e *Engine) SampleRate() float64 {
	return math.Float64frombits(e.sampleRate.Load())
}

// SampleTime returns the duration of one frame in seconds.
func (e *Engine) SampleTime() float64 {
	return 1 / e.SampleRate()
}

// SetSampleRate changes the sample rate and notifies every module.
func (e *Engine) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if sampleRate == e.SampleRate() {
		return
	}
	e.sampleRate.Store(math.Float64bits(sampleRate))
	for _, s := range e.slots {
		e.notifySampleRate(s, sampleRate)
	}
	e.log.Info("sample rate set to %g Hz", sampleRate)
}

func (e *Engine) notifySampleRate(s *slot, sampleRate float64) {
	if src, ok := s.m.Processor().(module.SampleRateChanger); ok {
		e.callHook(s, "OnSampleRateChange", func() { src.OnSampleRateChange(sampleRate) })
	}
}

// Frame returns the number of frames processed so far.
func (e *Engine) Frame() int64 {
	return e.frame.Load()
}

// BlockFrame returns the first frame of the current or last block.
func (e *Engine) BlockFrame() int64 {
	return e.blockFrame.Load()
}

// BlockTime returns the wall-clock time the current or last block started.
func (e *Engine) BlockTime() time.Time {
	ns := e.blockTime.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// ElapsedTime returns the processed audio duration in seconds.
func (e *Engine) ElapsedTime() float64 {
	return float64(e.Frame()) / e.SampleRate()
}

// Threads returns the configured worker count.
func (e *Engine) Threads() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.threads
}

// SetThreads resizes the worker pool at the next block. n <= 0 means one
// worker per CPU.
func (e *Engine) SetThreads(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n = Config{Threads: n}.threads()
	if n == e.threads {
		return
	}
	e.threads = n
	e.dirty.Store(true)
	e.log.Info("worker threads set to %d", n)
}

func (e *Engine) publishModules() {
	view := make(map[int64]*module.Module, len(e.slots))
	for _, s := range e.slots {
		view[s.m.ID] = s.m
	}
	e.moduleView.Store(&view)
}
