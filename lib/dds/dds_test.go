// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncode(tt *testing.T) {
	// 5x3 pixels → 2x1 blocks → 32 payload bytes.
	blocks := make([]byte, 32)
	for i := range blocks {
		blocks[i] = byte(i + 1)
	}

	buf := &bytes.Buffer{}
	if err := Encode(buf, 5, 3, blocks, nil); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	got := buf.Bytes()

	wantLen := 4 + headerSize + dx10HeaderSize + len(blocks)
	if len(got) != wantLen {
		tt.Fatalf("output length: got %d, want %d", len(got), wantLen)
	}
	if string(got[:4]) != Magic {
		tt.Fatalf("magic: got %q, want %q", got[:4], Magic)
	}

	le := binary.LittleEndian
	h := got[4:]
	if v := le.Uint32(h[0x00:]); v != headerSize {
		tt.Errorf("dwSize: got %d, want %d", v, headerSize)
	}
	if v := le.Uint32(h[0x04:]); v != ddsdCaps|ddsdHeight|ddsdWidth|ddsdPixelFormat|ddsdLinearSize {
		tt.Errorf("dwFlags: got 0x%08X", v)
	}
	if v := le.Uint32(h[0x08:]); v != 3 {
		tt.Errorf("height: got %d, want 3", v)
	}
	if v := le.Uint32(h[0x0C:]); v != 5 {
		tt.Errorf("width: got %d, want 5", v)
	}
	if v := le.Uint32(h[0x10:]); v != 32 {
		tt.Errorf("linear size: got %d, want 32", v)
	}
	if v := string(h[0x48+8 : 0x48+12]); v != "DX10" {
		tt.Errorf("fourCC: got %q, want \"DX10\"", v)
	}
	if v := le.Uint32(h[0x68:]); v != ddscapsTexture {
		tt.Errorf("caps: got 0x%08X, want 0x%08X", v, uint32(ddscapsTexture))
	}

	dx10 := got[4+headerSize:]
	if v := le.Uint32(dx10[0x00:]); v != dxgiFormatBC7UNorm {
		tt.Errorf("dxgiFormat: got %d, want %d", v, dxgiFormatBC7UNorm)
	}
	if v := le.Uint32(dx10[0x04:]); v != ddsDimensionTexture2D {
		tt.Errorf("resourceDimension: got %d, want %d", v, ddsDimensionTexture2D)
	}
	if v := le.Uint32(dx10[0x0C:]); v != 1 {
		tt.Errorf("arraySize: got %d, want 1", v)
	}

	if !bytes.Equal(got[4+headerSize+dx10HeaderSize:], blocks) {
		tt.Errorf("payload does not match the block buffer")
	}
}

func TestEncodeSRGB(tt *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode(buf, 4, 4, make([]byte, 16), &EncodeOptions{SRGB: true}); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	dx10 := buf.Bytes()[4+headerSize:]
	if v := binary.LittleEndian.Uint32(dx10); v != dxgiFormatBC7UNormSRGB {
		tt.Errorf("dxgiFormat: got %d, want %d", v, dxgiFormatBC7UNormSRGB)
	}
}

func TestEncodeRejectsBadInput(tt *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode(nil, 4, 4, make([]byte, 16), nil); !errors.Is(err, ErrBadArgument) {
		tt.Errorf("nil writer: got %v, want ErrBadArgument", err)
	}
	if err := Encode(buf, 0, 4, nil, nil); !errors.Is(err, ErrBadArgument) {
		tt.Errorf("zero width: got %v, want ErrBadArgument", err)
	}
	if err := Encode(buf, 65536, 4, make([]byte, 16384*16), nil); !errors.Is(err, ErrImageIsTooLarge) {
		tt.Errorf("too wide: got %v, want ErrImageIsTooLarge", err)
	}
	if err := Encode(buf, 4, 4, make([]byte, 15), nil); !errors.Is(err, ErrBufferSizeMismatch) {
		tt.Errorf("short payload: got %v, want ErrBufferSizeMismatch", err)
	}
	if err := Encode(buf, 5, 3, make([]byte, 16), nil); !errors.Is(err, ErrBufferSizeMismatch) {
		tt.Errorf("one block for two tiles: got %v, want ErrBufferSizeMismatch", err)
	}
}
