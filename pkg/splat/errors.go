package splat

import (
	"errors"
	"fmt"
)

// FormatError reports a malformed input: bad PLY header, truncated body,
// or invalid compressed-format metadata.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error in %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// DownloadError reports a required remote asset that could not be fetched.
// Status is the HTTP status code, or 0 for transport failures.
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsDownloadError reports whether err wraps a *DownloadError.
func IsDownloadError(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}
