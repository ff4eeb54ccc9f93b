// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package bc7enc

import (
	"fmt"

	"github.com/gputex/bc7/lib/bc7"
)

// BlockCompressor is the narrow boundary to the block compressor that a
// Session drives. Init may revise params in place; Blocks and
// TotalBlocksSizeInBytes are meaningful only after a successful Encode.
//
// *bc7.Encoder is the standard implementation.
type BlockCompressor interface {
	Init(img *bc7.Image, params *bc7.Params) error
	Encode() error
	Blocks() []byte
	TotalBlocksSizeInBytes() int
}

// Session is one encode job's worth of state: it normalizes a raw image,
// drives the block compressor, and owns the compressed block buffer until
// the next Encode or Close.
//
// A Session starts empty. A successful Encode makes the block accessors
// valid; a failed Encode leaves the session empty with no partial result
// reachable. A Session is not safe for concurrent use: callers wanting
// parallel encodes should use one Session per goroutine.
type Session struct {
	compressor BlockCompressor

	blocks  []byte
	size    int
	encoded bool
}

// NewSession returns an empty Session backed by the standard BC7 block
// compressor.
func NewSession() *Session {
	return &Session{compressor: &bc7.Encoder{}}
}

// NewSessionWith returns an empty Session backed by c.
func NewSessionWith(c BlockCompressor) *Session {
	return &Session{compressor: c}
}

// Encode runs the full pipeline: normalize raw, initialize the compressor,
// and compress every block. On success the session owns the result; on any
// failure the session is left empty.
//
// Re-encoding an already encoded session discards the previous block buffer
// before anything else, so a stale result is never observable.
//
// The compressor may revise params in place (including Params.Perceptual);
// the gamma decision is taken from the value params held at the moment
// Encode was called, never from the revised value.
//
// A nil params means to use the default configuration.
func (s *Session) Encode(raw *RawImage, params *bc7.Params) error {
	if s.compressor == nil {
		return ErrSessionClosed
	}
	s.blocks = nil
	s.size = 0
	s.encoded = false

	if params == nil {
		params = &bc7.Params{}
	}

	// Snapshot before compressor initialization, which may rewrite the flag.
	perceptual := params.Perceptual

	img, err := Normalize(raw, perceptual)
	if err != nil {
		return err
	}
	if err := s.compressor.Init(img, params); err != nil {
		return fmt.Errorf("%w: %w", ErrInitializationFailed, err)
	}
	if err := s.compressor.Encode(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}

	s.blocks = s.compressor.Blocks()
	s.size = s.compressor.TotalBlocksSizeInBytes()
	s.encoded = true
	return nil
}

// Blocks returns the compressed block buffer: 16 bytes per 4×4 tile,
// row-major. The buffer is borrowed: it is valid until the next Encode or
// Close and must not be modified.
//
// It returns ErrNotEncoded if the session has no encoded blocks.
func (s *Session) Blocks() ([]byte, error) {
	if !s.encoded {
		return nil, ErrNotEncoded
	}
	return s.blocks, nil
}

// TotalBlocksSizeInBytes returns the byte length of the block buffer, which
// always equals 16 * ceil(width/4) * ceil(height/4) for the encoded image.
//
// It returns ErrNotEncoded if the session has no encoded blocks.
func (s *Session) TotalBlocksSizeInBytes() (int, error) {
	if !s.encoded {
		return 0, ErrNotEncoded
	}
	return s.size, nil
}

// Close releases the compressor and any owned block buffer. The session is
// empty and unusable afterwards; closing twice is harmless.
func (s *Session) Close() error {
	s.compressor = nil
	s.blocks = nil
	s.size = 0
	s.encoded = false
	return nil
}
