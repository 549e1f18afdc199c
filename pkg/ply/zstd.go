package ply

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks zstd-framed PLY files.
const CompressedExt = ".zst"

// IsCompressed reports whether path names a zstd-framed file.
func IsCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), CompressedExt)
}

// Open opens path for reading, decompressing .zst files on the fly.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdReadCloser{dec: dec, f: f}, nil
}

// Create creates path for writing, compressing when the name ends in .zst.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(path) {
		return f, nil
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdWriteCloser{enc: enc, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

type zstdWriteCloser struct {
	enc *zstd.Encoder
	f   *os.File
}

func (z *zstdWriteCloser) Write(p []byte) (int, error) {
	return z.enc.Write(p)
}

// Close flushes the zstd frame before closing the file.
func (z *zstdWriteCloser) Close() error {
	if err := z.enc.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}
