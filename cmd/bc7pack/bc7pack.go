// Copyright 2026 The Bc7 Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// bc7pack encodes images as BC7 compressed textures wrapped in DDS files.
package main

import (
	"errors"
	"flag"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/gputex/bc7/internal/rawpix"
	"github.com/gputex/bc7/lib/bc7"
	"github.com/gputex/bc7/lib/bc7enc"
	"github.com/gputex/bc7/lib/dds"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	outFlag        = flag.String("out", "", "output file (default stdout)")
	resizeFlag     = flag.String("resize", "", "resize the input to WxH before encoding")
	perceptualFlag = flag.Bool("perceptual", false, "weight color error by luma contribution")
	uberFlag       = flag.Int("uber", 0, "encoder effort level, 0 (fastest) to 4")
	srgbFlag       = flag.Bool("srgb", false, "mark the DDS payload as BC7_UNORM_SRGB")
	zstdFlag       = flag.Bool("zstd", false, "compress the DDS output with zstd")
)

const usageStr = `bc7pack encodes images as BC7 compressed textures wrapped in DDS files.

Usage:

    bc7pack [flags] [path]

The path to the input image file is optional. If omitted, stdin is read.
Inputs may be BMP, GIF, JPEG, PNG, TIFF or WEBP.

The DDS output is written to stdout unless -out is given. With -zstd the
output is a zstd stream containing the DDS file.
`

var ErrBadResizeFlag = errors.New("main: bad -resize flag")

func main() {
	if err := main1(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() { os.Stderr.WriteString(usageStr) }
	flag.Parse()

	inFile := os.Stdin
	switch flag.NArg() {
	case 0:
		// No-op.
	case 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		inFile = f
	default:
		return errors.New("too many filenames; the maximum is one")
	}

	src, _, err := image.Decode(inFile)
	if err != nil {
		return err
	}

	if *resizeFlag != "" {
		width, height, err := parseResize(*resizeFlag)
		if err != nil {
			return err
		}
		src = rawpix.Resize(src, width, height)
	}

	raw := rawpix.FromImage(src)
	params := &bc7.Params{
		Perceptual: *perceptualFlag,
		UberLevel:  *uberFlag,
	}

	session := bc7enc.NewSession()
	defer session.Close()
	if err := session.Encode(raw, params); err != nil {
		return err
	}
	blocks, err := session.Blocks()
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	options := &dds.EncodeOptions{SRGB: *srgbFlag}
	if !*zstdFlag {
		return dds.Encode(out, raw.Width, raw.Height, blocks, options)
	}

	zw, err := zstd.NewWriter(out)
	if err != nil {
		return err
	}
	if err := dds.Encode(zw, raw.Width, raw.Height, blocks, options); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func parseResize(s string) (width int, height int, retErr error) {
	wStr, hStr, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, ErrBadResizeFlag
	}
	width, err := strconv.Atoi(wStr)
	if err != nil || width < 1 {
		return 0, 0, ErrBadResizeFlag
	}
	height, err = strconv.Atoi(hStr)
	if err != nil || height < 1 {
		return 0, 0, ErrBadResizeFlag
	}
	return width, height, nil
}
