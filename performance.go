// SPDX-License-Identifier: EPL-2.0

package squid

import (
	"io"

	"github.com/ik5/squid/audio"
	"github.com/ik5/squid/dsp"
	"github.com/ik5/squid/engine"
	"github.com/ik5/squid/event"
)

var _ audio.Source = (*Performance)(nil)

// Performance renders a sequence through an engine that is not running. It
// delivers every event at its exact frame as long as no block holds more
// events than the engine's event queue.
type Performance struct {
	eng  *engine.Engine
	seq  []event.Timed
	base uint64
	end  uint64

	emitted uint64
	late    int
}

// NewPerformance plays seq, sorted by Frame and counted from the engine's
// current position, for length frames.
func NewPerformance(eng *engine.Engine, seq []event.Timed, length uint64) *Performance {
	pos := eng.Position()
	return &Performance{
		eng:     eng,
		seq:     seq,
		base:    pos,
		end:     pos + length,
		emitted: pos,
	}
}

func (p *Performance) SampleRate() int { return p.eng.SampleRate() }
func (p *Performance) Channels() int   { return p.eng.Channels() }
func (p *Performance) BufSize() int    { return 8 * dsp.BlockSize * p.eng.Channels() }

// Close closes the engine.
func (p *Performance) Close() error { return p.eng.Close() }

// Late returns how many events were delivered after their frame.
func (p *Performance) Late() int { return p.late }

// Remaining returns how many events are still queued.
func (p *Performance) Remaining() int { return len(p.seq) }

func (p *Performance) queue(start uint64) {
	end := start + dsp.BlockSize
	sent := 0

	for _, te := range p.seq {
		at := p.base + te.Frame
		if at >= end {
			break
		}

		ev := te.Event
		ev.Timing = 0
		if at > start {
			ev.Timing = uint32(at - start)
		}

		if !p.eng.Send(ev) {
			break
		}
		if at < start {
			p.late++
		}
		sent++
	}

	p.seq = p.seq[sent:]
}

// ReadSamples renders interleaved stereo and returns io.EOF once length
// frames have been produced. The engine's own block buffer must be empty
// when the Performance is created.
func (p *Performance) ReadSamples(dst []float32) (int, error) {
	ch := p.eng.Channels()
	written := 0

	for written+ch <= len(dst) && p.emitted < p.end {
		pos := p.eng.Position()
		buffered := pos - p.emitted
		if buffered == 0 {
			p.queue(pos)
			buffered = dsp.BlockSize
		}

		frames := min(buffered, uint64((len(dst)-written)/ch), p.end-p.emitted)
		n, err := p.eng.ReadSamples(dst[written : written+int(frames)*ch])
		written += n
		p.emitted += uint64(n / ch)
		if err != nil {
			return written, err
		}
	}

	if p.emitted >= p.end {
		return written, io.EOF
	}
	return written, nil
}
