// SPDX-License-Identifier: EPL-2.0

package dsp

const (
	// BlockSize is the number of frames rendered per tick.
	BlockSize = 128
	// Lanes is the width of the per-lane loops used for phases and envelopes.
	Lanes = 8
)

// Block is one tick of mono samples. Blocks are reused across ticks.
type Block [BlockSize]float32

// Zero clears the block.
func (b *Block) Zero() {
	*b = Block{}
}

// Add sums src into b.
func (b *Block) Add(src *Block) {
	for i := range b {
		b[i] += src[i]
	}
}

// AddScaled sums src·g into b.
func (b *Block) AddScaled(src *Block, g float32) {
	for i := range b {
		b[i] += src[i] * g
	}
}

// Scale multiplies every sample by g.
func (b *Block) Scale(g float32) {
	for i := range b {
		b[i] *= g
	}
}

// Mul multiplies b by src sample by sample.
func (b *Block) Mul(src *Block) {
	for i := range b {
		b[i] *= src[i]
	}
}

// Peak returns the largest absolute sample.
func (b *Block) Peak() float32 {
	var p float32
	for _, v := range b {
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}
