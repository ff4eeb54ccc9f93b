// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package bc7

// Encoder compresses one Image into BC7 blocks. It is stateful: Init
// establishes the input and configuration, Encode produces the block buffer,
// and Blocks/TotalBlocksSizeInBytes read the result. An Encoder may be
// re-initialized for a new image, which discards any previous result.
//
// An Encoder is not safe for concurrent use.
type Encoder struct {
	width  int
	height int
	params Params
	pix    []byte

	blocks      []byte
	initialized bool
	encoded     bool
}

// Init validates img, snapshots params and the pixel data, and allocates the
// block buffer.
//
// Init revises params in place: UberLevel is clamped to [0, MaxUberLevel],
// and Perceptual is forced to false when RDOLambda is positive (the
// rate-distortion metric runs in linear space). Callers that depend on the
// requested Perceptual value must read it before calling Init.
//
// A nil params means to use the default configuration.
func (e *Encoder) Init(img *Image, params *Params) error {
	e.initialized = false
	e.encoded = false
	e.blocks = nil

	if err := img.validate(); err != nil {
		return err
	}

	if params == nil {
		params = &Params{}
	}
	if params.UberLevel < 0 {
		params.UberLevel = 0
	} else if params.UberLevel > MaxUberLevel {
		params.UberLevel = MaxUberLevel
	}
	if params.RDOLambda > 0 {
		params.Perceptual = false
	}

	e.width = img.Width
	e.height = img.Height
	e.params = *params
	e.pix = append([]byte(nil), img.Pix...)

	_, _, total := BlockCount(e.width, e.height)
	e.blocks = make([]byte, total*BlockBytes)
	e.initialized = true
	return nil
}

// Encode compresses every 4×4 tile of the initialized image, row-major.
func (e *Encoder) Encode() error {
	if !e.initialized {
		return ErrNotInitialized
	}

	weights := &uniformWeights
	if e.params.Perceptual {
		weights = &perceptualWeights
	}

	var texels [64]byte
	blocksX, blocksY, _ := BlockCount(e.width, e.height)
	j := 0
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			e.extractBlock(bx*4, by*4, &texels)
			block := encodeBlockMode6(&texels, weights, e.params.UberLevel)
			copy(e.blocks[j:j+BlockBytes], block[:])
			j += BlockBytes
		}
	}

	e.encoded = true
	return nil
}

// Blocks returns the compressed block buffer, or nil before a successful
// Encode. The buffer is owned by the Encoder and is invalidated by the next
// Init.
func (e *Encoder) Blocks() []byte {
	if !e.encoded {
		return nil
	}
	return e.blocks
}

// TotalBlocksSizeInBytes returns the byte length of the block buffer, or 0
// before a successful Encode.
func (e *Encoder) TotalBlocksSizeInBytes() int {
	if !e.encoded {
		return 0
	}
	return len(e.blocks)
}

// extractBlock copies the 4×4 tile whose top-left texel is (x0, y0) into
// dst. Out-of-bound texels right of and below the image are substituted with
// the nearest in-bound texel, so edge tiles never encode uninitialized data.
func (e *Encoder) extractBlock(x0 int, y0 int, dst *[64]byte) {
	mX1 := e.width - 1
	mY1 := e.height - 1
	for y := 0; y < 4; y++ {
		sy := min(mY1, y0+y)
		row := sy * e.width * 4
		for x := 0; x < 4; x++ {
			sx := min(mX1, x0+x)
			i := (16 * y) + (4 * x)
			copy(dst[i:i+4], e.pix[row+sx*4:row+sx*4+4])
		}
	}
}

// encodeBlockMode6 packs one 4×4 RGBA tile as a BC7 mode 6 block: a single
// subset with 7-bit endpoints, one P-bit per endpoint and 4-bit indices.
func encodeBlockMode6(texels *[64]byte, weights *[4]int32, uberLevel int) [BlockBytes]byte {
	var lo, hi [4]float32
	solid := boundingBox(texels, &lo, &hi)

	// Pair the endpoints per channel so the lo→hi line follows the data,
	// then refine by alternating index assignment and a least-squares
	// endpoint solve. Solid tiles have nothing to orient or refine.
	if !solid {
		dom := orientEndpoints(texels, &lo, &hi)
		if !refineEndpoints(texels, weights, 1+uberLevel, &lo, &hi) {
			// Every texel landed on one palette entry: the covariance sign
			// was too weak to pick the right diagonal. Retry on the opposite
			// pairing and keep it only if it separates the texels.
			flipLo, flipHi := lo, hi
			for c := 0; c < 4; c++ {
				if c != dom {
					flipLo[c], flipHi[c] = flipHi[c], flipLo[c]
				}
			}
			if refineEndpoints(texels, weights, 1+uberLevel, &flipLo, &flipHi) {
				lo, hi = flipLo, flipHi
			}
		}
	}

	// Quantize the endpoints to 7 bits plus a shared P-bit per endpoint.
	// UberLevel 0 derives each P-bit from the endpoints' low bits; higher
	// levels try all four combinations and keep the lowest-loss block.
	pCandidates := [][2]uint8{{pbitEstimate(&lo), pbitEstimate(&hi)}}
	if uberLevel >= 1 {
		pCandidates = [][2]uint8{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	}

	bestLoss := int64(-1)
	var bestE0, bestE1 [4]uint8
	var bestP [2]uint8
	var bestIndices [16]uint8
	for _, pc := range pCandidates {
		var e0, e1 [4]uint8
		for c := 0; c < 4; c++ {
			e0[c] = quantizeEndpoint(lo[c], pc[0])
			e1[c] = quantizeEndpoint(hi[c], pc[1])
		}
		r0 := reconstruct(&e0, pc[0])
		r1 := reconstruct(&e1, pc[1])

		var indices [16]uint8
		loss := quantizeIndicesReconstructed(texels, &r0, &r1, weights, &indices)
		if bestLoss < 0 || loss < bestLoss {
			bestLoss = loss
			bestE0, bestE1 = e0, e1
			bestP = pc
			bestIndices = indices
		}
	}

	// The anchor index (texel 0) is stored with its top bit dropped, so it
	// must be < 8. Swapping the endpoints inverts every index.
	if bestIndices[0] >= 8 {
		bestE0, bestE1 = bestE1, bestE0
		bestP[0], bestP[1] = bestP[1], bestP[0]
		for i := range bestIndices {
			bestIndices[i] = 15 - bestIndices[i]
		}
	}

	var w blockWriter
	w.write(0x40, 7) // mode 6
	for c := 0; c < 4; c++ {
		w.write(uint32(bestE0[c]), 7)
		w.write(uint32(bestE1[c]), 7)
	}
	w.write(uint32(bestP[0]), 1)
	w.write(uint32(bestP[1]), 1)
	w.write(uint32(bestIndices[0]), 3)
	for i := 1; i < 16; i++ {
		w.write(uint32(bestIndices[i]), 4)
	}
	return w.bits
}

// boundingBox computes the per-channel min and max of the tile. It reports
// whether every texel is identical.
func boundingBox(texels *[64]byte, lo *[4]float32, hi *[4]float32) (solid bool) {
	for c := 0; c < 4; c++ {
		lo[c] = float32(texels[c])
		hi[c] = float32(texels[c])
	}
	solid = true
	for i := 1; i < 16; i++ {
		for c := 0; c < 4; c++ {
			s := float32(texels[(4*i)+c])
			if s < lo[c] {
				lo[c] = s
			}
			if s > hi[c] {
				hi[c] = s
			}
		}
	}
	for c := 0; c < 4; c++ {
		if lo[c] != hi[c] {
			solid = false
		}
	}
	return solid
}

// orientEndpoints flips each channel's endpoint pairing so the lo→hi line
// follows the data. The bounding box always pairs channel minima with
// minima, a line on the box diagonal that cannot represent a channel moving
// against the others (a red-to-green gradient would collapse onto one
// index). A channel whose covariance with the widest channel is negative
// gets its endpoints swapped. Returns the widest channel's index.
func orientEndpoints(texels *[64]byte, lo *[4]float32, hi *[4]float32) int {
	dom := 0
	for c := 1; c < 4; c++ {
		if hi[c]-lo[c] > hi[dom]-lo[dom] {
			dom = c
		}
	}

	var sum [4]int
	for i := 0; i < 16; i++ {
		for c := 0; c < 4; c++ {
			sum[c] += int(texels[(4*i)+c])
		}
	}
	for c := 0; c < 4; c++ {
		if c == dom {
			continue
		}
		cov := 0
		for i := 0; i < 16; i++ {
			// Deviations from the mean, scaled by 16 to stay integral.
			dd := 16*int(texels[(4*i)+dom]) - sum[dom]
			dc := 16*int(texels[(4*i)+c]) - sum[c]
			cov += dd * dc
		}
		if cov < 0 {
			lo[c], hi[c] = hi[c], lo[c]
		}
	}
	return dom
}

// refineEndpoints alternates index assignment and the per-channel
// least-squares endpoint solve for the given number of rounds. It reports
// whether any solve succeeded; on false, lo and hi are unchanged.
func refineEndpoints(texels *[64]byte, weights *[4]int32, rounds int, lo *[4]float32, hi *[4]float32) bool {
	var indices [16]uint8
	refined := false
	for round := 0; round < rounds; round++ {
		quantizeIndices(texels, lo, hi, weights, &indices)
		if !solveEndpoints(texels, &indices, lo, hi) {
			break
		}
		refined = true
	}
	return refined
}

// quantizeIndices assigns each texel the 4-bit index whose interpolated color
// is nearest, working on unquantized float endpoints.
func quantizeIndices(texels *[64]byte, lo *[4]float32, hi *[4]float32, weights *[4]int32, indices *[16]uint8) {
	var palette [16][4]int32
	for j, w := range weights4 {
		for c := 0; c < 4; c++ {
			v := (float32(64-w)*lo[c] + float32(w)*hi[c] + 32) / 64
			palette[j][c] = int32(v)
		}
	}
	selectNearest(texels, &palette, weights, indices)
}

// quantizeIndicesReconstructed assigns indices against the decoder's exact
// palette for the quantized endpoints, returning the total weighted loss.
func quantizeIndicesReconstructed(texels *[64]byte, r0 *[4]int32, r1 *[4]int32, weights *[4]int32, indices *[16]uint8) int64 {
	var palette [16][4]int32
	for j, w := range weights4 {
		for c := 0; c < 4; c++ {
			palette[j][c] = ((64-w)*r0[c] + w*r1[c] + 32) >> 6
		}
	}
	return selectNearest(texels, &palette, weights, indices)
}

func selectNearest(texels *[64]byte, palette *[16][4]int32, weights *[4]int32, indices *[16]uint8) (loss int64) {
	for i := 0; i < 16; i++ {
		best := int64(-1)
		bestJ := uint8(0)
		for j := 0; j < 16; j++ {
			var err int64
			for c := 0; c < 4; c++ {
				d := int64(palette[j][c] - int32(texels[(4*i)+c]))
				err += int64(weights[c]) * d * d
			}
			if best < 0 || err < best {
				best = err
				bestJ = uint8(j)
			}
		}
		indices[i] = bestJ
		loss += best
	}
	return loss
}

// solveEndpoints replaces lo and hi with the least-squares optimal endpoints
// for the given index assignment. It reports whether the solve was usable; a
// degenerate system (all texels on one index) leaves lo and hi unchanged.
func solveEndpoints(texels *[64]byte, indices *[16]uint8, lo *[4]float32, hi *[4]float32) bool {
	var sumAA, sumAB, sumBB float64
	for i := 0; i < 16; i++ {
		b := float64(weights4[indices[i]]) / 64
		a := 1 - b
		sumAA += a * a
		sumAB += a * b
		sumBB += b * b
	}
	det := sumAA*sumBB - sumAB*sumAB
	if det < 1e-8 {
		return false
	}

	for c := 0; c < 4; c++ {
		var sumAX, sumBX float64
		for i := 0; i < 16; i++ {
			b := float64(weights4[indices[i]]) / 64
			x := float64(texels[(4*i)+c])
			sumAX += (1 - b) * x
			sumBX += b * x
		}
		newLo := (sumBB*sumAX - sumAB*sumBX) / det
		newHi := (sumAA*sumBX - sumAB*sumAX) / det
		lo[c] = clamp255(float32(newLo))
		hi[c] = clamp255(float32(newHi))
	}
	return true
}

// pbitEstimate picks the P-bit shared by an endpoint's four channels from
// the majority of its channels' low bits.
func pbitEstimate(v *[4]float32) uint8 {
	ones := 0
	for c := 0; c < 4; c++ {
		if (int32(v[c]+0.5) & 1) != 0 {
			ones++
		}
	}
	if ones >= 2 {
		return 1
	}
	return 0
}

// quantizeEndpoint finds the 7-bit endpoint that, combined with the P-bit,
// reconstructs nearest to v.
func quantizeEndpoint(v float32, p uint8) uint8 {
	q := int32((v-float32(p))/2 + 0.5)
	if q < 0 {
		q = 0
	} else if q > 127 {
		q = 127
	}
	return uint8(q)
}

// reconstruct expands 7-bit endpoints plus their P-bit to the 8-bit values a
// decoder interpolates with.
func reconstruct(e *[4]uint8, p uint8) [4]int32 {
	var r [4]int32
	for c := 0; c < 4; c++ {
		r[c] = (int32(e[c]) << 1) | int32(p)
	}
	return r
}

func clamp255(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// blockWriter packs bits into a 16-byte block, least significant bit first,
// matching the BC7 bitstream order.
type blockWriter struct {
	bits [BlockBytes]byte
	pos  uint
}

func (w *blockWriter) write(v uint32, n uint) {
	for i := uint(0); i < n; i++ {
		if v&(1<<i) != 0 {
			w.bits[w.pos>>3] |= 1 << (w.pos & 7)
		}
		w.pos++
	}
}
