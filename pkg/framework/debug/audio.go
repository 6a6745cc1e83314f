package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer checks rendered driver output, which is normalized so that
// 10 V maps to full scale.
type AudioAnalyzer struct {
	ClipThreshold    float32
	DCThreshold      float32
	SilenceThreshold float32
}

// NewAudioAnalyzer creates a new audio analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClipThreshold:    0.99,
		DCThreshold:      0.01,
		SilenceThreshold: 0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	NaNCount       int
	ZeroCrossings  int
}

// Analyze measures a buffer. NaN and Inf samples are counted and excluded.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}
	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var last float32
	valid := 0

	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) || math.IsInf(float64(sample), 0) {
			result.NaNCount++
			continue
		}

		abs := float32(math.Abs(float64(sample)))
		result.Peak = max(result.Peak, abs)
		if abs >= a.ClipThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)

		if valid > 0 && (last < 0) != (sample < 0) {
			result.ZeroCrossings++
		}
		last = sample
		valid++
	}

	if valid > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(valid)))
		result.DC = float32(sum / float64(valid))
	}
	result.Silent = result.RMS < a.SilenceThreshold
	return result
}

// Check returns a line per problem found in the buffer.
func (a *AudioAnalyzer) Check(buffer []float32, name string) []string {
	var issues []string
	result := a.Analyze(buffer)

	if result.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: contains %d NaN/Inf samples", name, result.NaNCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(float64(result.DC)) > float64(a.DCThreshold) {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	return issues
}

// String summarizes the result on one line.
func (r AnalysisResult) String() string {
	peakDB := math.Inf(-1)
	if r.Peak > 0 {
		peakDB = 20 * math.Log10(float64(r.Peak))
	}
	return fmt.Sprintf("samples=%d peak=%.3f (%.1f dBFS) rms=%.3f dc=%.4f clipped=%d nan=%d",
		r.Samples, r.Peak, peakDB, r.RMS, r.DC, r.ClippedSamples, r.NaNCount)
}
