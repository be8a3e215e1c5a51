// SPDX-License-Identifier: EPL-2.0

package dsp

// Oscillator renders stereo blocks at a configured frequency.
type Oscillator interface {
	// Configure retunes without touching the phase.
	Configure(freq, sampleRate float32)
	// ConfigureWithPhase retunes and restarts at the given cycle fraction.
	ConfigureWithPhase(freq, sampleRate, phase float32)
	// Process overwrites l and r with the next block.
	Process(l, r *Block)
	// Reset rewinds to phase zero.
	Reset()
}

// Classic is a single phase accumulator feeding one shaping function.
type Classic struct {
	shape  Shape
	phase  Phase
	phases Block
	noise  Rand
}

// NewClassic returns an oscillator producing shape.
func NewClassic(shape Shape) *Classic {
	return &Classic{shape: shape, noise: NewRand(0x5eed)}
}

func (o *Classic) Shape() Shape { return o.shape }

// SetShape switches waveform on the next block.
func (o *Classic) SetShape(s Shape) { o.shape = s }

func (o *Classic) Configure(freq, sampleRate float32) {
	o.phase.Configure(freq, sampleRate)
}

func (o *Classic) ConfigureWithPhase(freq, sampleRate, phase float32) {
	o.phase.ConfigureWithPhase(freq, sampleRate, phase)
}

func (o *Classic) Reset() { o.phase.Reset() }

// Phase returns the current cycle fraction.
func (o *Classic) Phase() float32 { return o.phase.Value() }

// Render writes one mono block into dst.
func (o *Classic) Render(dst *Block) {
	dt := o.phase.Delta()
	o.phase.Process(&o.phases)

	switch o.shape {
	case Sine:
		for i, p := range o.phases {
			dst[i] = SineAt(p)
		}
	case Saw:
		for i, p := range o.phases {
			dst[i] = SawAt(p, dt)
		}
	case Ramp:
		for i, p := range o.phases {
			dst[i] = RampAt(p, dt)
		}
	case Square:
		for i, p := range o.phases {
			dst[i] = SquareAt(p, dt)
		}
	case Triangle:
		for i, p := range o.phases {
			dst[i] = TriangleAt(p)
		}
	case Noise:
		for i := range dst {
			dst[i] = o.noise.Bipolar()
		}
	default:
		dst.Zero()
	}
}

// Process renders mono and copies it to both channels.
func (o *Classic) Process(l, r *Block) {
	o.Render(l)
	*r = *l
}
