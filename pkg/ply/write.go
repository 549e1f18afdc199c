package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteHeader writes the ASCII header for a binary little-endian vertex element.
func WriteHeader(w io.Writer, h *Header) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat %s 1.0\n", FormatBinaryLE)
	for _, c := range h.Comments {
		fmt.Fprintf(bw, "comment %s\n", c)
	}
	fmt.Fprintf(bw, "element vertex %d\n", h.Count)
	for _, p := range h.Properties {
		fmt.Fprintf(bw, "property %s %s\n", p.Type, p.Name)
	}
	bw.WriteString("end_header\n")
	return bw.Flush()
}

// WriteFloat32 writes a header followed by rows of float32 values.
// Every property of h must be Float32 and values must hold Count*len(Properties) entries.
func WriteFloat32(w io.Writer, h *Header, values []float32) error {
	for _, p := range h.Properties {
		if p.Type != Float32 {
			return fmt.Errorf("%w: property %s is %s, want float", ErrBadHeader, p.Name, p.Type)
		}
	}
	if want := h.Count * len(h.Properties); len(values) != want {
		return fmt.Errorf("%w: have %d values, header needs %d", ErrBadHeader, len(values), want)
	}

	if err := WriteHeader(w, h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bw := bufio.NewWriterSize(w, 1<<16)
	var buf [4]byte
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("writing body: %w", err)
		}
	}
	return bw.Flush()
}

// Write writes a cloud back out unchanged.
func Write(w io.Writer, c *Cloud) error {
	if err := WriteHeader(w, &c.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	_, err := w.Write(c.Data)
	return err
}
