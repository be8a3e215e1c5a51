// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes canonical PCM WAV files.
//
// # Reading
//
// Decoder walks the RIFF chunks, skipping any it does not know, until it
// reaches the sample data. The file must have exactly one "fmt " chunk with
// format tag 1, placed before the "data" chunk. Samples may be 8, 16, 24 or
// 32 bits wide and come back as float32 in [-1, 1]:
//
//	src, err := wav.Decoder{}.Decode(f)
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// A malformed header returns a sentinel error, usually wrapped in a
// *ChunkError naming the chunk. A data chunk cut short surfaces as a
// *ChunkError wrapping io.ErrUnexpectedEOF rather than as a clean io.EOF.
//
// # Writing
//
// Output is always 16-bit. WriteWAV16 and WriteFloat32 write a whole file
// from memory; Encoder streams to an io.WriteSeeker through go-audio/wav.
package wav
