package debug

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler keeps timing statistics for named sections. Recording takes a
// lock, so callers on the audio path record once per block, not per frame.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*measurement
	enabled      atomic.Bool
	maxSamples   int
}

type measurement struct {
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// Stats is a snapshot of one section.
type Stats struct {
	Name  string
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration

	recent []time.Duration
}

// NewProfiler creates a profiler keeping the last maxSamples timings per
// section for percentiles.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of a function.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record adds one timing to a section.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	if !p.enabled.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &measurement{
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	m.minTime = min(m.minTime, elapsed)
	m.maxTime = max(m.maxTime, elapsed)

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.sampleIndex] = elapsed
	}
	m.sampleIndex = (m.sampleIndex + 1) % p.maxSamples
}

// Measurement returns a snapshot of a section.
func (p *Profiler) Measurement(name string) (Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return Stats{Name: name}, false
	}
	return m.snapshot(name), true
}

// Measurements returns snapshots of every section sorted by name.
func (p *Profiler) Measurements() []Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Stats, 0, len(p.measurements))
	for name, m := range p.measurements {
		out = append(out, m.snapshot(name))
	}
	slices.SortFunc(out, func(a, b Stats) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (m *measurement) snapshot(name string) Stats {
	return Stats{
		Name:   name,
		Count:  m.count,
		Total:  m.totalTime,
		Min:    m.minTime,
		Max:    m.maxTime,
		Last:   m.lastTime,
		recent: slices.Clone(m.samples),
	}
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*measurement)
}

// Report renders every section.
func (p *Profiler) Report() string {
	all := p.Measurements()
	if len(all) == 0 {
		return "No measurements recorded"
	}

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")
	for _, s := range all {
		fmt.Fprintf(&sb, "%s:\n", s.Name)
		fmt.Fprintf(&sb, "  Count:   %d\n", s.Count)
		fmt.Fprintf(&sb, "  Total:   %v\n", s.Total)
		fmt.Fprintf(&sb, "  Average: %v\n", s.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", s.Min)
		fmt.Fprintf(&sb, "  Max:     %v\n", s.Max)
		fmt.Fprintf(&sb, "  P99:     %v\n", s.Percentile(99))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Average returns the mean time.
func (s Stats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Percentile returns the p-th percentile (0..100) of the recent samples.
func (s Stats) Percentile(p float64) time.Duration {
	if len(s.recent) == 0 {
		return 0
	}
	sorted := slices.Clone(s.recent)
	slices.Sort(sorted)
	p = math.Max(0, math.Min(100, p))
	index := int(math.Ceil(float64(len(sorted))*p/100.0)) - 1
	if index < 0 {
		index = 0
	}
	return sorted[index]
}

// LoadMeter turns block timings into a smoothed fraction of the real-time
// budget. A load of 1 means processing took exactly as long as the audio it
// produced.
type LoadMeter struct {
	*Profiler
	section string
	load    atomic.Uint64
}

// NewLoadMeter records block timings under section in p.
func NewLoadMeter(p *Profiler, section string) *LoadMeter {
	return &LoadMeter{Profiler: p, section: section}
}

// Block records one block of frames that took elapsed to process.
func (l *LoadMeter) Block(frames int, sampleRate float64, elapsed time.Duration) {
	l.Record(l.section, elapsed)
	if frames <= 0 || sampleRate <= 0 {
		return
	}
	budget := float64(frames) / sampleRate
	instant := elapsed.Seconds() / budget
	prev := l.Load()
	const lambda = 0.1
	l.load.Store(math.Float64bits(prev + (instant-prev)*lambda))
}

// Load returns the smoothed load.
func (l *LoadMeter) Load() float64 {
	return math.Float64frombits(l.load.Load())
}

// Stats returns the block section.
func (l *LoadMeter) Stats() Stats {
	s, _ := l.Measurement(l.section)
	return s
}

// ResetLoad clears the smoothed load and the block section.
func (l *LoadMeter) ResetLoad() {
	l.load.Store(0)
	l.mu.Lock()
	delete(l.measurements, l.section)
	l.mu.Unlock()
}
