package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Common display formatters and parsers. They operate on display values.

// FrequencyFormatter formats frequency values with Hz/kHz
func FrequencyFormatter(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// FrequencyParser parses frequency strings
func FrequencyParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	scale := 1.0
	if strings.HasSuffix(str, "khz") {
		str = strings.TrimSuffix(str, "khz")
		scale = 1000
	}
	str = strings.TrimSuffix(str, "hz")
	val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return val * scale, nil
}

// DecibelFormatter formats dB values
func DecibelFormatter(db float64) string {
	if db <= -60 {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser parses dB strings
func DecibelParser(str string) (float64, error) {
	if strings.Contains(str, "∞") || strings.Contains(strings.ToLower(str), "inf") {
		return -96.0, nil // Practical minimum
	}
	str = strings.TrimSpace(str)
	str = strings.TrimSuffix(strings.TrimSuffix(str, "dB"), "db")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// PercentFormatter formats percentage values
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// SecondsFormatter formats a duration in seconds with an appropriate unit
func SecondsFormatter(s float64) string {
	switch {
	case s < 0.001:
		return fmt.Sprintf("%.1f µs", s*1e6)
	case s < 1:
		return fmt.Sprintf("%.1f ms", s*1000)
	default:
		return fmt.Sprintf("%.2f s", s)
	}
}

// SecondsParser parses "12 ms", "3s" or "40µs" into seconds
func SecondsParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	scale := 1.0
	switch {
	case strings.HasSuffix(str, "µs"):
		str, scale = strings.TrimSuffix(str, "µs"), 1e-6
	case strings.HasSuffix(str, "us"):
		str, scale = strings.TrimSuffix(str, "us"), 1e-6
	case strings.HasSuffix(str, "ms"):
		str, scale = strings.TrimSuffix(str, "ms"), 1e-3
	case strings.HasSuffix(str, "s"):
		str = strings.TrimSuffix(str, "s")
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return val * scale, nil
}
