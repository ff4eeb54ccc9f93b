// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package bc7enc

import (
	"errors"
	"testing"

	"github.com/gputex/bc7/lib/bc7"
)

// fakeCompressor implements BlockCompressor for lifecycle tests. It records
// what Init received and can be made to fail at either stage or to revise
// params the way the real compressor does.
type fakeCompressor struct {
	initErr   error
	encodeErr error

	revisePerceptual bool

	gotImg    *bc7.Image
	gotParams bc7.Params

	blocks []byte
}

func (f *fakeCompressor) Init(img *bc7.Image, params *bc7.Params) error {
	f.gotImg = img
	f.gotParams = *params
	if f.revisePerceptual {
		params.Perceptual = false
	}
	if f.initErr != nil {
		return f.initErr
	}
	_, _, total := bc7.BlockCount(img.Width, img.Height)
	f.blocks = make([]byte, total*bc7.BlockBytes)
	return nil
}

func (f *fakeCompressor) Encode() error {
	return f.encodeErr
}

func (f *fakeCompressor) Blocks() []byte {
	return f.blocks
}

func (f *fakeCompressor) TotalBlocksSizeInBytes() int {
	return len(f.blocks)
}

func smallRaw() *RawImage {
	return &RawImage{Width: 4, Height: 4, U8: make([]byte, 64)}
}

func TestSessionEmptyAccessors(tt *testing.T) {
	s := NewSession()
	if _, err := s.Blocks(); !errors.Is(err, ErrNotEncoded) {
		tt.Errorf("Blocks: got %v, want ErrNotEncoded", err)
	}
	if _, err := s.TotalBlocksSizeInBytes(); !errors.Is(err, ErrNotEncoded) {
		tt.Errorf("TotalBlocksSizeInBytes: got %v, want ErrNotEncoded", err)
	}
}

func TestSessionEncode(tt *testing.T) {
	testCases := []struct {
		width  int
		height int
		want   int
	}{
		{4, 4, 16},
		{5, 3, 32}, // 2x1 blocks
		{8, 8, 64},
		{1, 1, 16},
		{13, 13, 256}, // 4x4 blocks
	}

	s := NewSession()
	defer s.Close()
	for _, tc := range testCases {
		raw := &RawImage{Width: tc.width, Height: tc.height, U8: make([]byte, tc.width*tc.height*4)}
		if err := s.Encode(raw, nil); err != nil {
			tt.Fatalf("%dx%d: Encode: %v", tc.width, tc.height, err)
		}
		size, err := s.TotalBlocksSizeInBytes()
		if err != nil {
			tt.Fatalf("%dx%d: TotalBlocksSizeInBytes: %v", tc.width, tc.height, err)
		}
		if size != tc.want {
			tt.Errorf("%dx%d: size: got %d, want %d", tc.width, tc.height, size, tc.want)
		}
		blocks, err := s.Blocks()
		if err != nil {
			tt.Fatalf("%dx%d: Blocks: %v", tc.width, tc.height, err)
		}
		if len(blocks) != size {
			tt.Errorf("%dx%d: len(Blocks) %d != size %d", tc.width, tc.height, len(blocks), size)
		}
	}
}

func TestSessionNormalizationErrors(tt *testing.T) {
	fake := &fakeCompressor{}
	s := NewSessionWith(fake)

	bad := &RawImage{Width: 0, Height: 4, U8: []byte{}}
	if err := s.Encode(bad, nil); !errors.Is(err, ErrInvalidDimensions) {
		tt.Fatalf("Encode: got %v, want ErrInvalidDimensions", err)
	}
	if fake.gotImg != nil {
		tt.Errorf("compressor was initialized despite a normalization error")
	}
	if _, err := s.Blocks(); !errors.Is(err, ErrNotEncoded) {
		tt.Errorf("Blocks after failed encode: got %v, want ErrNotEncoded", err)
	}
}

func TestSessionInitFailure(tt *testing.T) {
	cause := errors.New("boom")
	s := NewSessionWith(&fakeCompressor{initErr: cause})

	err := s.Encode(smallRaw(), nil)
	if !errors.Is(err, ErrInitializationFailed) {
		tt.Fatalf("Encode: got %v, want ErrInitializationFailed", err)
	}
	if !errors.Is(err, cause) {
		tt.Errorf("Encode error does not wrap the cause: %v", err)
	}
	if _, err := s.Blocks(); !errors.Is(err, ErrNotEncoded) {
		tt.Errorf("Blocks: got %v, want ErrNotEncoded", err)
	}
}

func TestSessionEncodeFailureEmptiesSession(tt *testing.T) {
	fake := &fakeCompressor{}
	s := NewSessionWith(fake)

	if err := s.Encode(smallRaw(), nil); err != nil {
		tt.Fatalf("first Encode: %v", err)
	}
	if _, err := s.Blocks(); err != nil {
		tt.Fatalf("Blocks: %v", err)
	}

	// A failed re-encode must not leave the previous result reachable.
	fake.encodeErr = errors.New("overheated")
	if err := s.Encode(smallRaw(), nil); !errors.Is(err, ErrEncodingFailed) {
		tt.Fatalf("second Encode: got %v, want ErrEncodingFailed", err)
	}
	if _, err := s.Blocks(); !errors.Is(err, ErrNotEncoded) {
		tt.Errorf("Blocks after failed re-encode: got %v, want ErrNotEncoded", err)
	}
}

func TestSessionReEncodeReplacesBlocks(tt *testing.T) {
	s := NewSession()
	defer s.Close()

	if err := s.Encode(&RawImage{Width: 8, Height: 8, U8: make([]byte, 8*8*4)}, nil); err != nil {
		tt.Fatalf("first Encode: %v", err)
	}
	if size, _ := s.TotalBlocksSizeInBytes(); size != 64 {
		tt.Fatalf("first size: got %d, want 64", size)
	}

	if err := s.Encode(&RawImage{Width: 4, Height: 4, U8: make([]byte, 64)}, nil); err != nil {
		tt.Fatalf("second Encode: %v", err)
	}
	if size, _ := s.TotalBlocksSizeInBytes(); size != 16 {
		tt.Errorf("second size: got %d, want 16", size)
	}
}

func TestSessionPerceptualSnapshot(tt *testing.T) {
	// The compressor revises Perceptual to false during Init. The gamma
	// decision must come from the flag's value before Init: a 0.25 sample
	// normalizes to 136 with gamma, 64 without.
	fake := &fakeCompressor{revisePerceptual: true}
	s := NewSessionWith(fake)

	raw := &RawImage{Width: 1, Height: 1, F32: []float32{0.25, 0.25, 0.25, 1}}
	params := &bc7.Params{Perceptual: true}
	if err := s.Encode(raw, params); err != nil {
		tt.Fatalf("Encode: %v", err)
	}

	if params.Perceptual {
		tt.Fatalf("params.Perceptual was not revised by the compressor")
	}
	if !fake.gotParams.Perceptual {
		tt.Fatalf("compressor did not receive the original params")
	}
	if got := fake.gotImg.Pix[0]; got != 136 {
		tt.Errorf("canonical sample: got %d, want 136 (gamma must use the pre-init flag)", got)
	}
}

func TestSessionNilParams(tt *testing.T) {
	s := NewSession()
	defer s.Close()
	if err := s.Encode(smallRaw(), nil); err != nil {
		tt.Fatalf("Encode with nil params: %v", err)
	}
}

func TestSessionClose(tt *testing.T) {
	s := NewSession()
	if err := s.Encode(smallRaw(), nil); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	if err := s.Close(); err != nil {
		tt.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		tt.Fatalf("second Close: %v", err)
	}
	if _, err := s.Blocks(); !errors.Is(err, ErrNotEncoded) {
		tt.Errorf("Blocks after Close: got %v, want ErrNotEncoded", err)
	}
	if err := s.Encode(smallRaw(), nil); !errors.Is(err, ErrSessionClosed) {
		tt.Errorf("Encode after Close: got %v, want ErrSessionClosed", err)
	}
}
