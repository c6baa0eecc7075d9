package angle

import "math"

// PlusMinus180 is an angle in degrees, stored as a value in range [-180, 180].
type PlusMinus180 struct {
	float64
}

// WrapOnce converts a float that is at most one turn out of range to a PlusMinus180 by
// adding or subtracting 360 once.  Values already in range, including -180 and 180,
// are kept as they are.
func WrapOnce(f float64) PlusMinus180 {
	if f < -180 {
		f += 360
	} else if f > 180 {
		f -= 360
	}
	return PlusMinus180{f}
}

// FromFloat converts a float of any magnitude to a PlusMinus180 by calculating
// f mod 360 and shifting into range (-180, 180].
func FromFloat(f float64) PlusMinus180 {
	d := math.Mod(f, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return PlusMinus180{d}
}

func (a PlusMinus180) AddFloat(f float64) PlusMinus180 {
	return WrapOnce(a.float64 + f)
}

func (a PlusMinus180) SubFloat(f float64) PlusMinus180 {
	return WrapOnce(a.float64 - f)
}

// Float returns the angle in degrees.
func (a PlusMinus180) Float() float64 {
	return a.float64
}

// Clamp limits f to [min, max].
func Clamp(f, min, max float64) float64 {
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}
