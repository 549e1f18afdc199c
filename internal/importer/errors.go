package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/gsplat-palette/pkg/palette"
	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// FailedLabel is the label given to sinks when an import fails.
const FailedLabel = "Import failed"

// Stage names a pipeline step.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageDecode    Stage = "decode"
	StageNormalize Stage = "normalize"
	StageBake      Stage = "bake"
	StageSink      Stage = "sink"
)

// Failure is the single error surfaced for a failed import.
type Failure struct {
	Stage  Stage
	Source string
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("import %s: %s: %v", f.Source, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Message returns a one-line description suitable for a user.
func (f *Failure) Message() string {
	var (
		fe *splat.FormatError
		de *splat.DownloadError
	)
	switch {
	case errors.As(f.Err, &fe):
		return fmt.Sprintf("%s: %s is not a valid splat asset: %v", FailedLabel, f.Source, fe.Err)
	case errors.As(f.Err, &de):
		return fmt.Sprintf("%s: could not download %s", FailedLabel, de.URL)
	case errors.Is(f.Err, palette.ErrEmptyInput):
		return fmt.Sprintf("%s: %s contains no points", FailedLabel, f.Source)
	case errors.Is(f.Err, context.Canceled), errors.Is(f.Err, context.DeadlineExceeded):
		return fmt.Sprintf("%s: %s was cancelled", FailedLabel, f.Source)
	}
	return fmt.Sprintf("%s: %s (%s): %v", FailedLabel, f.Source, f.Stage, f.Err)
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}
