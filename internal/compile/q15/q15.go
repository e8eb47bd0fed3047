// Package q15 converts real values to the 16-bit fixed-point format with
// 15 fractional bits that the runtime's DSP library works in.
package q15

import (
	"math"

	"go.uber.org/zap"
)

const (
	One   = 1 << 15
	Lower = -1.0
	Upper = 32767.0 / 32768.0
	Step  = 1.0 / One
)

type Quantizer struct {
	log       *zap.Logger
	overflows int
}

func New(log *zap.Logger) *Quantizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Quantizer{log: log}
}

// Quantize clamps x to [Lower, Upper] and rounds it to the nearest step.
// Clamping is reported unless x is exactly 1, which is the usual result of
// normalizing by a maximum and is expected to land on Upper.
func (q *Quantizer) Quantize(x float64) int16 {
	if x < Lower || x >= Upper || math.IsNaN(x) {
		if x != 1 {
			q.overflows += 1
			q.log.Warn("value beyond q15 range",
				zap.Float64("value", x),
				zap.Float64("lower", Lower),
				zap.Float64("upper", Upper),
			)
		}
		switch {
		case math.IsNaN(x):
			x = 0
		case x < Lower:
			x = Lower
		default:
			x = Upper
		}
	}
	return int16(math.Round(x * One))
}

// Scaled quantizes x/scale.
func (q *Quantizer) Scaled(x float64, scale int) int16 {
	return q.Quantize(x / float64(scale))
}

// Overflows is the number of values clamped with a diagnostic so far.
func (q *Quantizer) Overflows() int {
	return q.overflows
}

func Dequantize(v int16) float64 {
	return float64(v) / One
}
