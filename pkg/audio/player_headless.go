//go:build headless

package audio

import (
	"sync"
	"time"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
)

// Player clocks an engine in real time with a ticker and discards its
// output. It stands in for the device player on machines without audio.
type Player struct {
	src  *source
	log  *debug.Logger
	buf  []float32
	tick time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
	err  error
}

func NewPlayer(e *engine.Engine, blockSize int, log *debug.Logger) (*Player, error) {
	if log == nil {
		log = debug.Default().Named("play")
	}
	src, err := newSource(e, blockSize, log)
	if err != nil {
		return nil, err
	}
	tick := time.Duration(float64(src.blockSize) / e.SampleRate() * float64(time.Second))
	return &Player{
		src:  src,
		log:  log,
		buf:  make([]float32, src.blockSize*Channels),
		tick: tick,
	}, nil
}

func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
	p.log.Info("running headless at %.0f Hz", p.src.engine.SampleRate())
}

func (p *Player) run(stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(p.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			p.mu.Lock()
			err := p.src.read(p.buf)
			if err != nil {
				p.err = err
			}
			p.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (p *Player) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Player) Faults() int {
	return int(p.src.faults.Load())
}

func (p *Player) Close() error {
	p.Stop()
	return nil
}
