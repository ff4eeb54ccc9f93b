// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package bc7 implements a BC7 (Block Compression 7) texture encoder.
//
// BC7 encodes each 4×4 pixel tile as a fixed 16-byte block, giving a constant
// 8 bits per pixel for RGBA data. The format defines eight block modes; this
// encoder emits mode 6 blocks (one subset, 7.7.7.7 endpoints with per-endpoint
// P-bits, 4-bit indices), which handles LDR RGBA content including alpha and
// always produces a stream any BC7 decoder accepts.
//
// BC7 is specified at
// https://learn.microsoft.com/en-us/windows/win32/direct3d11/bc7-format
package bc7

import (
	"errors"
)

var (
	ErrBadArgument        = errors.New("bc7: bad argument")
	ErrBufferSizeMismatch = errors.New("bc7: buffer size mismatch")
	ErrImageIsTooLarge    = errors.New("bc7: image is too large")
	ErrNotInitialized     = errors.New("bc7: encoder is not initialized")
	ErrNotEncoded         = errors.New("bc7: encoder has not encoded")
)

// BlockBytes is the size in bytes of one compressed BC7 block.
const BlockBytes = 16

// maxDimension caps image width and height. It matches the largest multiple
// of 4 that fits the 16-bit extents used by common texture containers.
const maxDimension = 65532

// Image is a tightly packed 8-bit RGBA image, the only input shape the
// encoder accepts. Pix holds interleaved R, G, B, A samples in row-major
// order and must have length Width*Height*4.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

func (m *Image) validate() error {
	if m == nil || m.Width < 1 || m.Height < 1 {
		return ErrBadArgument
	}
	if m.Width > maxDimension || m.Height > maxDimension {
		return ErrImageIsTooLarge
	}
	if len(m.Pix) != m.Width*m.Height*4 {
		return ErrBufferSizeMismatch
	}
	return nil
}

// Params configures an encode. The zero value is valid and means to use the
// default configuration.
type Params struct {
	// Perceptual weights the R, G and B channels by their luma contribution
	// when selecting block indices and endpoints, instead of treating all
	// channels uniformly.
	//
	// Init may overwrite this field: rate-distortion trials measure error in
	// linear space, so Init forces Perceptual to false whenever RDOLambda is
	// positive. Callers that need the requested value must read it before
	// calling Init.
	Perceptual bool

	// UberLevel trades encode time for quality, from 0 (fastest) to
	// MaxUberLevel. Init clamps out-of-range values.
	UberLevel int

	// RDOLambda enables rate-distortion optimization when positive. The
	// current encoder treats it as a reserved tuning field: it only affects
	// how Init revises Perceptual.
	RDOLambda float32
}

// MaxUberLevel is the largest meaningful Params.UberLevel value.
const MaxUberLevel = 4

// BlockCount returns the number of 4×4 tiles in each dimension and in total
// for an image of the given size.
func BlockCount(width int, height int) (blocksX int, blocksY int, total int) {
	blocksX = (width + 3) / 4
	blocksY = (height + 3) / 4
	return blocksX, blocksY, blocksX * blocksY
}

// weights4 is the BC7 interpolation weight table for 4-bit indices. An
// endpoint pair (a, b) interpolates as (a*(64-w) + b*w + 32) >> 6.
var weights4 = [16]int32{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}

// Channel error weights. Perceptual weighting follows the ITU-R BT.601 luma
// constants, scaled to integers.
var (
	uniformWeights    = [4]int32{1, 1, 1, 1}
	perceptualWeights = [4]int32{299, 587, 114, 1000}
)
