// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package bc7enc prepares raw RGBA pixel data for BC7 block compression and
// manages the lifetime of one encode job.
//
// The pipeline has two stages. Normalize converts a RawImage, holding either
// normalized float samples or 8-bit samples, into the canonical 8-bit RGBA
// shape the block compressor accepts, applying an optional perceptual (gamma
// 1/2.2) transform to the color channels. A Session then drives the block
// compressor over that canonical image and owns the resulting compressed
// block buffer until the next encode or Close.
package bc7enc

import (
	"errors"
	"math"

	"github.com/gputex/bc7/lib/bc7"
)

var (
	ErrBadArgument          = errors.New("bc7enc: bad argument")
	ErrInvalidDimensions    = errors.New("bc7enc: invalid dimensions")
	ErrBufferSizeMismatch   = errors.New("bc7enc: buffer size mismatch")
	ErrNotEncoded           = errors.New("bc7enc: session has no encoded blocks")
	ErrSessionClosed        = errors.New("bc7enc: session is closed")
	ErrInitializationFailed = errors.New("bc7enc: compressor initialization failed")
	ErrEncodingFailed       = errors.New("bc7enc: block encoding failed")
)

// RawImage is an RGBA image in one of the two admissible input
// representations: F32 holds interleaved samples normalized to [0, 1]
// (out-of-range values are clamped), U8 holds interleaved 8-bit samples.
// Exactly one of the two slices must be set, with length Width*Height*4.
//
// The buffer belongs to the caller and is never retained past Normalize.
type RawImage struct {
	Width  int
	Height int

	F32 []float32
	U8  []byte
}

// Normalize converts raw into the canonical 8-bit RGBA image the block
// compressor accepts.
//
// On the float path, each sample is scaled by 255 and rounded to nearest
// (half away up), clamping to [0, 255]. When perceptual is true, color
// samples are first remapped through the gamma curve s^(1/2.2); the alpha
// channel is never remapped. Non-positive and non-finite samples quantize to
// 0 rather than producing garbage bytes.
//
// On the byte path, samples are copied verbatim: no gamma is applied even
// when perceptual is true, as 8-bit inputs are taken to be gamma-encoded
// already.
//
// Normalize does not mutate raw, and its output is freshly allocated.
func Normalize(raw *RawImage, perceptual bool) (*bc7.Image, error) {
	if raw == nil || raw.Width < 1 || raw.Height < 1 {
		return nil, ErrInvalidDimensions
	}
	n := raw.Width * raw.Height * 4

	if raw.U8 != nil {
		if raw.F32 != nil {
			// Ambiguous representation, not a length problem.
			return nil, ErrBadArgument
		}
		if len(raw.U8) != n {
			return nil, ErrBufferSizeMismatch
		}
		return &bc7.Image{
			Width:  raw.Width,
			Height: raw.Height,
			Pix:    append([]byte(nil), raw.U8...),
		}, nil
	}

	if len(raw.F32) != n {
		return nil, ErrBufferSizeMismatch
	}
	pix := make([]byte, n)
	for i := 0; i < n; i += 4 {
		for c := 0; c < 4; c++ {
			s := float64(raw.F32[i+c])
			if perceptual && c != 3 {
				if s > 0 {
					s = math.Pow(s, 1/2.2)
				} else {
					s = 0
				}
			}
			s = s*255 + 0.5
			if !(s > 0) {
				s = 0
			} else if s > 255 {
				s = 255
			}
			pix[i+c] = uint8(s)
		}
	}
	return &bc7.Image{Width: raw.Width, Height: raw.Height, Pix: pix}, nil
}
