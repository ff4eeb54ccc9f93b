// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package rawpix converts Go standard library images into the raw RGBA
// sample buffers that package bc7enc accepts, and resizes them.
//
// It is an internal package: it only provides what's needed by the
// github.com/gputex/bc7 module's commands.
package rawpix

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gputex/bc7/lib/bc7enc"
)

// FromImage converts m to a byte-representation RawImage, interleaved
// non-premultiplied RGBA.
func FromImage(m image.Image) *bc7enc.RawImage {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	raw := &bc7enc.RawImage{
		Width:  w,
		Height: h,
		U8:     make([]byte, w*h*4),
	}

	if src, ok := m.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			srcRow := src.Pix[y*src.Stride:]
			copy(raw.U8[y*w*4:(y+1)*w*4], srcRow[:w*4])
		}
		return raw
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			raw.U8[i+0] = c.R
			raw.U8[i+1] = c.G
			raw.U8[i+2] = c.B
			raw.U8[i+3] = c.A
			i += 4
		}
	}
	return raw
}

// FloatFromImage converts m to a float-representation RawImage, with each
// sample scaled to [0, 1].
func FloatFromImage(m image.Image) *bc7enc.RawImage {
	byteForm := FromImage(m)
	raw := &bc7enc.RawImage{
		Width:  byteForm.Width,
		Height: byteForm.Height,
		F32:    make([]float32, len(byteForm.U8)),
	}
	for i, s := range byteForm.U8 {
		raw.F32[i] = float32(s) / 255
	}
	return raw
}

// Resize scales m to width×height using Catmull-Rom resampling.
func Resize(m image.Image, width int, height int) image.Image {
	b := m.Bounds()
	if (b.Dx() == width) && (b.Dy() == height) {
		return m
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}
