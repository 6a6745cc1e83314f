package engine

import (
	"sync"
	"time"

	"github.com/justyntemme/rackgo/pkg/framework/process"
)

// job is one block of frames for every worker. It is passed by value so a
// worker finishing its last barrier never sees the next block's fields.
type job struct {
	frames     int
	start      int64
	sampleRate float64
	coef       float64
	meter      bool
}

type worker struct {
	plan   plan
	faults []*PluginFault
	jobs   chan job
}

// pool is a fixed set of workers. Worker 0 runs on the goroutine calling
// Step; the others are long-lived goroutines fed one job per block.
type pool struct {
	workers []*worker
	barrier *barrier
	wg      sync.WaitGroup
}

func newPool(n int) *pool {
	p := &pool{barrier: newBarrier(n)}
	for i := 0; i < n; i++ {
		w := &worker{}
		if i > 0 {
			w.jobs = make(chan job, 1)
			p.wg.Add(1)
			go p.loop(w)
		}
		p.workers = append(p.workers, w)
	}
	return p
}

func (p *pool) loop(w *worker) {
	defer p.wg.Done()
	for j := range w.jobs {
		p.run(w, j)
	}
}

// setPlans hands each worker its share. Only called between blocks.
func (p *pool) setPlans(plans []plan) {
	for i, w := range p.workers {
		w.plan = plans[i]
	}
}

// runBlock processes j on every worker and returns once all are done.
func (p *pool) runBlock(j job) {
	for _, w := range p.workers[1:] {
		w.jobs <- j
	}
	p.run(p.workers[0], j)
}

// run is the per-frame loop. The final barrier of the last frame doubles as
// the end-of-block join.
func (p *pool) run(w *worker, j job) {
	for i := 0; i < j.frames; i++ {
		args := process.NewArgs(j.sampleRate, j.start+int64(i))

		for _, s := range w.plan.slots {
			s.advanceSmoothing(j.coef)
			if s.m.Bypassed() {
				s.m.ProcessBypass()
				continue
			}
			var t0 time.Time
			if j.meter {
				t0 = time.Now()
			}
			if f := s.process(args); f != nil {
				s.fault()
				w.faults = append(w.faults, f)
				s.m.ProcessBypass()
				continue
			}
			if j.meter {
				s.meterTime += time.Since(t0)
			}
		}
		p.barrier.Wait()

		for k := range w.plan.inputs {
			ip := &w.plan.inputs[k]
			ip.in.Accumulate(ip.sources)
		}
		for _, s := range w.plan.slots {
			s.m.LeftExpander.FlipMessages()
			s.m.RightExpander.FlipMessages()
		}
		p.barrier.Wait()
	}
}

// collectFaults returns and clears the faults raised during the last block.
func (p *pool) collectFaults() []*PluginFault {
	var out []*PluginFault
	for _, w := range p.workers {
		out = append(out, w.faults...)
		w.faults = w.faults[:0]
	}
	return out
}

func (p *pool) size() int {
	return len(p.workers)
}

// stop ends the worker goroutines and waits for them.
func (p *pool) stop() {
	for _, w := range p.workers[1:] {
		close(w.jobs)
	}
	p.wg.Wait()
}
