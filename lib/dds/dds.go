// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package dds writes BC7 block payloads as DDS (DirectDraw Surface) files.
//
// BC7 has no legacy FourCC, so the header always carries the "DX10" FourCC
// followed by the DX10 extension header naming the DXGI format.
//
// DDS is specified at
// https://learn.microsoft.com/en-us/windows/win32/direct3ddds/dx-graphics-dds-pguide
package dds

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gputex/bc7/lib/bc7"
)

// Magic is the byte string prefix of every DDS file.
const Magic = "DDS "

var (
	ErrBadArgument        = errors.New("dds: bad argument")
	ErrBufferSizeMismatch = errors.New("dds: buffer size mismatch")
	ErrImageIsTooLarge    = errors.New("dds: image is too large")
)

const (
	headerSize      = 124
	pixelFormatSize = 32
	dx10HeaderSize  = 20

	// DDSD header flags.
	ddsdCaps        = 0x00000001
	ddsdHeight      = 0x00000002
	ddsdWidth       = 0x00000004
	ddsdPixelFormat = 0x00001000
	ddsdLinearSize  = 0x00080000

	// Pixel format flags.
	ddpfFourCC = 0x00000004

	// Caps.
	ddscapsTexture = 0x00001000

	// DX10 extension header values.
	dxgiFormatBC7UNorm     = 98
	dxgiFormatBC7UNormSRGB = 99
	ddsDimensionTexture2D  = 3
)

// EncodeOptions are optional arguments to Encode. The zero value is valid
// and means to use the default configuration.
type EncodeOptions struct {
	// SRGB marks the payload as DXGI_FORMAT_BC7_UNORM_SRGB instead of
	// DXGI_FORMAT_BC7_UNORM, for samplers that decode gamma in hardware.
	SRGB bool
}

// Encode writes a single-level BC7 texture of the given pixel size to w.
//
// blocks must hold exactly 16 * ceil(width/4) * ceil(height/4) bytes, the
// shape produced by the bc7 and bc7enc packages.
//
// options may be nil, which means to use the default configuration.
func Encode(w io.Writer, width int, height int, blocks []byte, options *EncodeOptions) error {
	if (w == nil) || (width < 1) || (height < 1) {
		return ErrBadArgument
	}
	if (width > 65532) || (height > 65532) {
		return ErrImageIsTooLarge
	}
	_, _, total := bc7.BlockCount(width, height)
	if len(blocks) != total*bc7.BlockBytes {
		return ErrBufferSizeMismatch
	}

	format := uint32(dxgiFormatBC7UNorm)
	if (options != nil) && options.SRGB {
		format = dxgiFormatBC7UNormSRGB
	}

	buf := [4 + headerSize + dx10HeaderSize]byte{}
	copy(buf[:4], Magic)
	le := binary.LittleEndian

	h := buf[4 : 4+headerSize]
	le.PutUint32(h[0x00:], headerSize)
	le.PutUint32(h[0x04:], ddsdCaps|ddsdHeight|ddsdWidth|ddsdPixelFormat|ddsdLinearSize)
	le.PutUint32(h[0x08:], uint32(height))
	le.PutUint32(h[0x0C:], uint32(width))
	le.PutUint32(h[0x10:], uint32(len(blocks)))
	// Depth, mip map count and the reserved words stay zero.

	pf := h[0x48 : 0x48+pixelFormatSize]
	le.PutUint32(pf[0x00:], pixelFormatSize)
	le.PutUint32(pf[0x04:], ddpfFourCC)
	copy(pf[0x08:], "DX10")

	le.PutUint32(h[0x68:], ddscapsTexture)

	dx10 := buf[4+headerSize:]
	le.PutUint32(dx10[0x00:], format)
	le.PutUint32(dx10[0x04:], ddsDimensionTexture2D)
	le.PutUint32(dx10[0x08:], 0) // miscFlag
	le.PutUint32(dx10[0x0C:], 1) // arraySize
	le.PutUint32(dx10[0x10:], 0) // miscFlags2

	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.Write(blocks)
	return err
}
