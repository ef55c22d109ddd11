// Package zoom maps between a linear zoom percentage in [-1, 1] and a
// camera's native zoom ratio range.
//
// Both halves interpolate the crop width (the reciprocal of the ratio), so
// equal steps of percentage feel like equal steps of magnification. A
// percentage of 0 is always a ratio of exactly 1.
package zoom

// Range is a camera's supported zoom ratios.
type Range struct {
	Min float64
	Max float64
}

// Flat reports whether the camera has no zoom range at all.
func (r Range) Flat() bool {
	return r.Min == r.Max
}

// Clamp limits ratio to the range.
func (r Range) Clamp(ratio float64) float64 {
	return min(max(ratio, r.Min), r.Max)
}

// RatioFromPercentage converts a percentage to a zoom ratio.
func RatioFromPercentage(r Range, p float64) float64 {
	switch {
	case p >= 1:
		return r.Max
	case p <= -1:
		return r.Min
	case p > 0:
		cropAtMax := 1 / r.Max
		crop := 1 + (cropAtMax-1)*p
		return clamp(1/crop, 1, r.Max)
	case p < 0:
		cropAtMin := 1 / r.Min
		crop := cropAtMin + (1-cropAtMin)*(p+1)
		return clamp(1/crop, r.Min, 1)
	default:
		return 1
	}
}

// PercentageFromRatio converts a zoom ratio to a percentage. A flat range
// always yields 0.
func PercentageFromRatio(r Range, ratio float64) float64 {
	switch {
	case r.Flat():
		return 0
	case ratio == 1:
		return 0
	case ratio >= r.Max:
		return 1
	case ratio <= r.Min:
		return -1
	case ratio > 1:
		crop := 1 / ratio
		cropAtMax := 1 / r.Max
		return (crop - 1) / (cropAtMax - 1)
	default:
		crop := 1 / ratio
		cropAtMin := 1 / r.Min
		return (crop-cropAtMin)/(1-cropAtMin) - 1
	}
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return v
	}
	return min(max(v, lo), hi)
}
