package audio

import (
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// pcmFormat is the WAVE format tag for integer PCM.
const pcmFormat = 1

// WriteWAV encodes interleaved samples in -1..1 as integer PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, channels, bitDepth int) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return fmt.Errorf("audio: %d samples do not divide into %d channels", len(samples), channels)
	}
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat)
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("audio: encode wav: %w", err)
	}
	return enc.Close()
}

// ReadWAV decodes a whole file into interleaved samples and its format.
func ReadWAV(r io.ReadSeeker) ([]float32, *goaudio.Format, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, nil, fmt.Errorf("audio: not a wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("audio: decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("audio: invalid wav format")
	}
	return buf.Data, buf.Format, nil
}

// ToStereo converts interleaved samples with any channel count to stereo.
// Mono is copied to both sides; extra channels are dropped.
func ToStereo(samples []float32, channels int) []float32 {
	if channels == Channels {
		return samples
	}
	frames := len(samples) / channels
	out := make([]float32, frames*Channels)
	for i := 0; i < frames; i++ {
		l := samples[i*channels]
		r := l
		if channels > 1 {
			r = samples[i*channels+1]
		}
		out[i*Channels] = l
		out[i*Channels+1] = r
	}
	return out
}
