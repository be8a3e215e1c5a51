// SPDX-License-Identifier: EPL-2.0

// Package audio holds the streaming sample interface shared by the engine,
// the file formats and the offline tools.
//
// # Source
//
// A Source is pulled, never pushed:
//
//	type Source interface {
//		SampleRate() int
//		Channels() int
//		ReadSamples(dst []float32) (int, error)
//		BufSize() int
//		Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. ReadSamples returns the
// number of values written, which is always a whole number of frames, and
// io.EOF once the stream is exhausted. The engine is itself a Source that
// never ends, decoders are Sources over a file.
//
// # Processing
//
// Resampler converts the rate with cubic interpolation and a one-pole
// anti-alias filter when the rate goes down. MonoMixer averages channels.
// Both wrap another Source, so they chain:
//
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))
//
// # Formats
//
// Registry maps a format name, usually the file extension, to a Decoder:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	src, err := reg.Open("take.wav")
package audio
