// Package sogs reads the compressed web splat format: a meta.json
// codebook document plus 8-bit channel images, and reconstructs the
// splats it encodes. It also fetches such assets over HTTP.
package sogs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

var (
	// ErrMissingKey is returned when meta.json lacks a required key.
	ErrMissingKey = errors.New("missing required key")
	// ErrCodebookIndex is returned when a channel value has no codebook entry.
	ErrCodebookIndex = errors.New("codebook index out of range")
	// ErrShortImage is returned when a channel image holds fewer than count pixels.
	ErrShortImage = errors.New("channel image smaller than point count")
)

// Range is a per-axis value range.
type Range struct {
	Mins [3]float32 `json:"mins"`
	Maxs [3]float32 `json:"maxs"`
}

// Codebook maps 8-bit channel values to floats.
type Codebook struct {
	Codebook []float32 `json:"codebook"`
}

// Lookup returns the codebook entry for v.
func (c Codebook) Lookup(v uint8) (float32, error) {
	if int(v) >= len(c.Codebook) {
		return 0, fmt.Errorf("%w: %d (size %d)", ErrCodebookIndex, v, len(c.Codebook))
	}
	return c.Codebook[v], nil
}

// Meta is the decoded meta.json document. Count is zero when absent.
type Meta struct {
	Count  int      `json:"count"`
	Means  Range    `json:"means"`
	Scales Codebook `json:"scales"`
	SH0    Codebook `json:"sh0"`
}

// ParseMeta decodes meta.json. Malformed JSON and missing keys are
// reported as *splat.FormatError.
func ParseMeta(data []byte) (*Meta, error) {
	var raw struct {
		Count  *int `json:"count"`
		Means  *struct {
			Mins *[3]float32 `json:"mins"`
			Maxs *[3]float32 `json:"maxs"`
		} `json:"means"`
		Scales *struct {
			Codebook []float32 `json:"codebook"`
		} `json:"scales"`
		SH0 *struct {
			Codebook []float32 `json:"codebook"`
		} `json:"sh0"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &splat.FormatError{Source: "meta.json", Err: err}
	}

	missing := func(key string) error {
		return &splat.FormatError{Source: "meta.json", Err: fmt.Errorf("%w: %s", ErrMissingKey, key)}
	}
	switch {
	case raw.Means == nil:
		return nil, missing("means")
	case raw.Means.Mins == nil:
		return nil, missing("means.mins")
	case raw.Means.Maxs == nil:
		return nil, missing("means.maxs")
	case raw.Scales == nil || len(raw.Scales.Codebook) == 0:
		return nil, missing("scales.codebook")
	case raw.SH0 == nil || len(raw.SH0.Codebook) == 0:
		return nil, missing("sh0.codebook")
	}

	m := &Meta{
		Means:  Range{Mins: *raw.Means.Mins, Maxs: *raw.Means.Maxs},
		Scales: Codebook{Codebook: raw.Scales.Codebook},
		SH0:    Codebook{Codebook: raw.SH0.Codebook},
	}
	if raw.Count != nil {
		if *raw.Count < 0 {
			return nil, &splat.FormatError{Source: "meta.json", Err: fmt.Errorf("negative count %d", *raw.Count)}
		}
		m.Count = *raw.Count
	}
	return m, nil
}
