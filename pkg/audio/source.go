package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/rackgo/pkg/engine"
	"github.com/justyntemme/rackgo/pkg/framework/debug"
	"github.com/justyntemme/rackgo/pkg/modules/core"
)

// Channels is the interleaved channel count of every stream in this package.
const Channels = core.AudioChannels

// DefaultBlockSize is the number of frames advanced per engine step.
const DefaultBlockSize = 256

// ErrNoAudio is returned when the patch has no Audio module to pull from.
var ErrNoAudio = errors.New("audio: patch has no Audio module")

// source pulls interleaved samples out of an engine, stepping it one block
// at a time as the consumer asks for more.
type source struct {
	engine    *engine.Engine
	audio     *core.Audio
	blockSize int
	log       *debug.Logger

	block  []float32
	offset int
	faults atomic.Int64
}

func newSource(e *engine.Engine, blockSize int, log *debug.Logger) (*source, error) {
	a := core.FindAudio(e.Modules())
	if a == nil {
		return nil, ErrNoAudio
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	a.Reserve(blockSize)
	return &source{
		engine:    e,
		audio:     a,
		blockSize: blockSize,
		log:       log,
		block:     make([]float32, 0, blockSize*Channels),
	}, nil
}

// step advances the engine by one block and buffers its output. Module
// faults are counted and otherwise ignored; the engine has already logged
// and bypassed the modules involved.
func (s *source) step() error {
	err := s.engine.Step(s.blockSize)
	if err != nil {
		var fault *engine.PluginFault
		if !errors.As(err, &fault) {
			return fmt.Errorf("audio: step: %w", err)
		}
		s.faults.Add(1)
	}
	s.block = s.block[:cap(s.block)]
	n := s.audio.Drain(s.block)
	s.block = s.block[:n]
	s.offset = 0
	return nil
}

// read fills dst with interleaved samples, stepping the engine as needed.
func (s *source) read(dst []float32) error {
	for len(dst) > 0 {
		if s.offset >= len(s.block) {
			if err := s.step(); err != nil {
				return err
			}
			if len(s.block) == 0 {
				// the Audio module was removed or bypassed
				clear(dst)
				return nil
			}
		}
		n := copy(dst, s.block[s.offset:])
		s.offset += n
		dst = dst[n:]
	}
	return nil
}
