//go:build !headless

package audio

import (
	"io"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
)

// Player runs an engine in real time on the default output device. The
// device callback steps the engine whenever it needs more samples, so the
// engine is clocked by the sound card.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	src    *source
	log    *debug.Logger

	samples []float32
	err     atomic.Pointer[error]
	mu      sync.Mutex
	started bool
}

// NewPlayer opens the output device at the engine's sample rate.
func NewPlayer(e *engine.Engine, blockSize int, log *debug.Logger) (*Player, error) {
	if log == nil {
		log = debug.Default().Named("play")
	}
	src, err := newSource(e, blockSize, log)
	if err != nil {
		return nil, err
	}
	op := &oto.NewContextOptions{
		SampleRate:   int(e.SampleRate()),
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	p := &Player{ctx: ctx, src: src, log: log}
	p.player = ctx.NewPlayer(p)
	return p, nil
}

// Read implements io.Reader for the device. It is only called from oto's
// goroutine.
func (p *Player) Read(b []byte) (int, error) {
	n := len(b) / 4
	if n == 0 {
		return 0, nil
	}
	if cap(p.samples) < n {
		p.samples = make([]float32, n)
	}
	s := p.samples[:n]
	if err := p.src.read(s); err != nil {
		p.err.Store(&err)
		return 0, io.EOF
	}
	copy(b, unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4))
	return n * 4, nil
}

func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		p.player.Play()
		p.started = true
		p.log.Info("playing at %.0f Hz", p.src.engine.SampleRate())
	}
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		p.player.Pause()
		p.started = false
	}
}

// Err returns the error that ended playback, if any.
func (p *Player) Err() error {
	if err := p.err.Load(); err != nil {
		return *err
	}
	return nil
}

// Faults returns the number of blocks in which a module faulted.
func (p *Player) Faults() int {
	return int(p.src.faults.Load())
}

func (p *Player) Close() error {
	p.Stop()
	return p.player.Close()
}
