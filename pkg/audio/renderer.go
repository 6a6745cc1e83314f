package audio

import (
	"context"
	"fmt"
	"os"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
)

// DefaultBitDepth is the PCM word size of rendered files.
const DefaultBitDepth = 16

// Renderer runs an engine faster than real time and collects what its
// Audio module plays.
type Renderer struct {
	engine    *engine.Engine
	blockSize int
	bitDepth  int
	log       *debug.Logger
	analyzer  *debug.AudioAnalyzer
}

// RenderOption configures a Renderer.
type RenderOption func(*Renderer)

// WithBlockSize sets the frames per engine step.
func WithBlockSize(n int) RenderOption {
	return func(r *Renderer) {
		if n > 0 {
			r.blockSize = n
		}
	}
}

// WithBitDepth sets the PCM word size used by RenderFile.
func WithBitDepth(bits int) RenderOption {
	return func(r *Renderer) {
		if bits > 0 {
			r.bitDepth = bits
		}
	}
}

// WithRenderLogger replaces the package logger.
func WithRenderLogger(l *debug.Logger) RenderOption {
	return func(r *Renderer) {
		r.log = l
	}
}

// NewRenderer returns a renderer that pulls blocks from e. It does not own
// the engine.
func NewRenderer(e *engine.Engine, opts ...RenderOption) *Renderer {
	r := &Renderer{
		engine:    e,
		blockSize: DefaultBlockSize,
		bitDepth:  DefaultBitDepth,
		log:       debug.Default().Named("render"),
		analyzer:  debug.NewAudioAnalyzer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result describes a finished render.
type Result struct {
	Frames   int
	Faults   int
	Analysis debug.AnalysisResult
}

// Render advances the engine by frames and returns the interleaved stereo
// output. input, when not nil, is interleaved stereo fed to the Audio
// module's inputs one block ahead of the engine.
func (r *Renderer) Render(ctx context.Context, frames int, input []float32) ([]float32, Result, error) {
	src, err := newSource(r.engine, r.blockSize, r.log)
	if err != nil {
		return nil, Result{}, err
	}
	out := make([]float32, frames*Channels)
	block := r.blockSize * Channels
	for off := 0; off < len(out); off += block {
		if err := ctx.Err(); err != nil {
			return out[:off], Result{Frames: off / Channels, Faults: int(src.faults.Load())}, err
		}
		end := min(off+block, len(out))
		if off < len(input) {
			src.audio.Feed(input[off:min(end, len(input))])
		}
		if err := src.read(out[off:end]); err != nil {
			return out[:off], Result{Frames: off / Channels, Faults: int(src.faults.Load())}, err
		}
	}

	res := Result{
		Frames:   frames,
		Faults:   int(src.faults.Load()),
		Analysis: r.analyzer.Analyze(out),
	}
	for _, issue := range r.analyzer.Check(out, "output") {
		r.log.Warn("%s", issue)
	}
	return out, res, nil
}

// RenderFile renders frames into a WAV file at path.
func (r *Renderer) RenderFile(ctx context.Context, path string, frames int, input []float32) (Result, error) {
	samples, res, err := r.Render(ctx, frames, input)
	if err != nil {
		return res, err
	}
	f, err := os.Create(path)
	if err != nil {
		return res, fmt.Errorf("audio: %w", err)
	}
	if err := WriteWAV(f, samples, int(r.engine.SampleRate()), Channels, r.bitDepth); err != nil {
		f.Close()
		return res, err
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("audio: %w", err)
	}
	r.log.Info("rendered %d frames to %s: %s", frames, path, res.Analysis)
	return res, nil
}
