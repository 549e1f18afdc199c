package ply

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// maxHeaderBytes bounds the header scan so binary garbage fails fast.
const maxHeaderBytes = 1 << 20

// Read parses a PLY header and exactly Count vertex records from r.
func Read(r io.Reader) (*Cloud, error) {
	return read(r, -1)
}

// read parses a PLY stream. When limit is not negative it is the total
// stream size, and bodies that cannot fit in it are rejected up front.
func read(r io.Reader, limit int64) (*Cloud, error) {
	br := bufio.NewReader(r)

	header, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	size, err := bodySize(header)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && size > limit {
		return nil, fmt.Errorf("%w: %d vertices need %d bytes, file has %d",
			ErrTruncatedBody, header.Count, size, limit)
	}

	// The buffer grows with the data actually present, so a header
	// claiming more vertices than the stream holds costs no memory.
	var buf bytes.Buffer
	if n, err := io.Copy(&buf, io.LimitReader(br, size)); err != nil || n < size {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: want %d bytes for %d vertices, got %d: %v",
			ErrTruncatedBody, size, header.Count, n, err)
	}

	return &Cloud{Header: *header, Data: buf.Bytes()}, nil
}

// bodySize returns Count*Stride, failing if the product overflows.
func bodySize(h *Header) (int64, error) {
	count, stride := int64(h.Count), int64(h.Stride())
	if stride > 0 && count > math.MaxInt64/stride {
		return 0, fmt.Errorf("%w: vertex count %d overflows body size", ErrBadHeader, h.Count)
	}
	return count * stride, nil
}

// Parse parses a PLY file held in memory.
func Parse(data []byte) (*Cloud, error) {
	return Read(bytes.NewReader(data))
}

// ReadFile parses a PLY file from disk. Paths ending in .zst are
// decompressed transparently.
func ReadFile(path string) (*Cloud, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PLY file: %w", err)
	}
	defer rc.Close()

	limit := int64(-1)
	if !IsCompressed(path) {
		if fi, err := os.Stat(path); err == nil {
			limit = fi.Size()
		}
	}
	return read(rc, limit)
}

// ReadHeader consumes the ASCII header up to and including end_header.
// Properties are collected for the vertex element only.
func ReadHeader(br *bufio.Reader) (*Header, error) {
	h := &Header{Format: FormatBinaryLE, Version: "1.0"}

	var (
		consumed int
		element  string
		first    = true
	)

	for {
		raw, err := br.ReadString('\n')
		consumed += len(raw)
		if consumed > maxHeaderBytes {
			return nil, ErrMissingEndHeader
		}
		line := strings.TrimSpace(raw)

		if first {
			first = false
			if line != "ply" {
				return nil, fmt.Errorf("%w: missing ply magic", ErrBadHeader)
			}
			continue
		}

		if line == "end_header" {
			return h, nil
		}
		if err != nil {
			// EOF (or read failure) before the terminator.
			return nil, ErrMissingEndHeader
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 2 {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
			}
			if parts[1] != FormatBinaryLE {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, parts[1])
			}
			h.Format = parts[1]
			if len(parts) > 2 {
				h.Version = parts[2]
			}
		case "comment", "obj_info":
			h.Comments = append(h.Comments, decodeComment(strings.TrimSpace(strings.TrimPrefix(line, parts[0]))))
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
			}
			element = parts[1]
			if element == "vertex" {
				n, err := strconv.Atoi(parts[2])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: invalid vertex count %q", ErrBadHeader, parts[2])
				}
				h.Count = n
			}
		case "property":
			if element != "vertex" {
				continue
			}
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
			}
			if parts[1] == "list" {
				return nil, fmt.Errorf("%w: list property %q on vertex element", ErrBadHeader, parts[len(parts)-1])
			}
			t := ParseScalarType(parts[1])
			h.Properties = append(h.Properties, Property{
				Name:     parts[len(parts)-1],
				TypeName: parts[1],
				Type:     t,
				Offset:   h.Stride(),
			})
		}
	}
}
