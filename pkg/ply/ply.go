// Package ply reads and writes binary little-endian PLY point clouds.
//
// Only the vertex element is decoded. Records are kept as a packed byte
// block and columns are converted to float32 on demand.
package ply

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// PLY format errors.
var (
	ErrMissingEndHeader  = errors.New("PLY header is not terminated by end_header")
	ErrTruncatedBody     = errors.New("truncated PLY body")
	ErrBadHeader         = errors.New("malformed PLY header")
	ErrUnsupportedFormat = errors.New("unsupported PLY format")
	ErrUnknownProperty   = errors.New("unknown PLY property")
)

// FormatBinaryLE is the only body encoding this package reads and writes.
const FormatBinaryLE = "binary_little_endian"

// ScalarType is a fixed-width PLY scalar type.
type ScalarType uint8

// Supported scalar types.
const (
	Float32 ScalarType = iota
	Float64
	Uint8
	Int8
	Int16
	Uint16
	Int32
	Uint32
)

var scalarNames = map[string]ScalarType{
	"float": Float32, "float32": Float32,
	"double": Float64, "float64": Float64,
	"uchar": Uint8, "uint8": Uint8,
	"char": Int8, "int8": Int8,
	"short": Int16, "int16": Int16,
	"ushort": Uint16, "uint16": Uint16,
	"int": Int32, "int32": Int32,
	"uint": Uint32, "uint32": Uint32,
}

// ParseScalarType maps a PLY type name to its binary layout.
// Unrecognised names are read as 32-bit floats.
func ParseScalarType(name string) ScalarType {
	if t, ok := scalarNames[name]; ok {
		return t
	}
	return Float32
}

// Size returns the byte width of the type.
func (t ScalarType) Size() int {
	switch t {
	case Float64:
		return 8
	case Uint8, Int8:
		return 1
	case Int16, Uint16:
		return 2
	default:
		return 4
	}
}

// String returns the canonical PLY name of the type.
func (t ScalarType) String() string {
	switch t {
	case Float64:
		return "double"
	case Uint8:
		return "uchar"
	case Int8:
		return "char"
	case Int16:
		return "short"
	case Uint16:
		return "ushort"
	case Int32:
		return "int"
	case Uint32:
		return "uint"
	default:
		return "float"
	}
}

// decode reads one value of type t from b as float32.
func (t ScalarType) decode(b []byte) float32 {
	switch t {
	case Float64:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case Uint8:
		return float32(b[0])
	case Int8:
		return float32(int8(b[0]))
	case Int16:
		return float32(int16(binary.LittleEndian.Uint16(b)))
	case Uint16:
		return float32(binary.LittleEndian.Uint16(b))
	case Int32:
		return float32(int32(binary.LittleEndian.Uint32(b)))
	case Uint32:
		return float32(binary.LittleEndian.Uint32(b))
	default:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
}

// Property is a vertex property declaration.
type Property struct {
	Name     string
	TypeName string // as written in the header
	Type     ScalarType
	Offset   int // byte offset inside a record
}

// Header describes the vertex element of a PLY file.
type Header struct {
	Format     string
	Version    string
	Count      int
	Properties []Property
	Comments   []string
}

// Stride returns the size of one vertex record in bytes.
func (h *Header) Stride() int {
	n := 0
	for _, p := range h.Properties {
		n += p.Type.Size()
	}
	return n
}

// Property looks up a property by name.
func (h *Header) Property(name string) (Property, bool) {
	for _, p := range h.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// AddProperty appends a property, computing its record offset.
func (h *Header) AddProperty(name string, t ScalarType) {
	h.Properties = append(h.Properties, Property{
		Name:     name,
		TypeName: t.String(),
		Type:     t,
		Offset:   h.Stride(),
	})
}

// NamesWithPrefix returns property names starting with prefix in declared order.
func (h *Header) NamesWithPrefix(prefix string) []string {
	var names []string
	for _, p := range h.Properties {
		if strings.HasPrefix(p.Name, prefix) {
			names = append(names, p.Name)
		}
	}
	return names
}

// Cloud is a parsed vertex element: header plus packed little-endian records.
type Cloud struct {
	Header Header
	Data   []byte
}

// Len returns the number of vertex records.
func (c *Cloud) Len() int {
	return c.Header.Count
}

// Has reports whether the cloud declares the named property.
func (c *Cloud) Has(name string) bool {
	_, ok := c.Header.Property(name)
	return ok
}

// Float32s returns the named column converted to float32.
func (c *Cloud) Float32s(name string) ([]float32, error) {
	p, ok := c.Header.Property(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	stride := c.Header.Stride()
	size := p.Type.Size()
	out := make([]float32, c.Header.Count)
	for i := range out {
		off := i*stride + p.Offset
		out[i] = p.Type.decode(c.Data[off : off+size])
	}
	return out, nil
}

// Columns returns several columns at once, failing on the first missing name.
func (c *Cloud) Columns(names ...string) ([][]float32, error) {
	cols := make([][]float32, len(names))
	for i, name := range names {
		col, err := c.Float32s(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}
