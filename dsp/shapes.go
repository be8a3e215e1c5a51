// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"math"
	"strings"
)

// Shape selects the waveform of a Classic oscillator.
type Shape uint8

const (
	Sine Shape = iota
	Saw
	Square
	Triangle
	Ramp
	Noise
)

var shapeNames = [...]string{
	Sine:     "sine",
	Saw:      "saw",
	Square:   "square",
	Triangle: "triangle",
	Ramp:     "ramp",
	Noise:    "noise",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", s)
}

// ParseShape maps a name such as "saw" to its Shape.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return Sine, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

// ShapeFromProgram maps a MIDI program number onto the available shapes.
func ShapeFromProgram(program uint8) Shape {
	return Shape(int(program) % len(shapeNames))
}

// SineAt evaluates sin(2π·phase).
func SineAt(phase float32) float32 {
	return float32(math.Sin(2 * math.Pi * float64(phase)))
}

// SawAt is a band limited rising saw.
func SawAt(phase, dt float32) float32 {
	return 2*phase - 1 - PolyBLEP(phase, dt)
}

// RampAt is a band limited falling saw.
func RampAt(phase, dt float32) float32 {
	return 1 - 2*phase + PolyBLEP(phase, dt)
}

// SquareAt is a band limited square with both edges corrected.
func SquareAt(phase, dt float32) float32 {
	v := float32(-1)
	if phase < 0.5 {
		v = 1
	}

	half := phase + 0.5
	if half >= 1 {
		half--
	}

	return v + PolyBLEP(phase, dt) - PolyBLEP(half, dt)
}

// TriangleAt peaks at phase 0.5.
func TriangleAt(phase float32) float32 {
	c := phase - 0.5
	if c < 0 {
		c = -c
	}
	return 1 - 4*c
}
