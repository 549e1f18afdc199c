package sogs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// Fetcher defaults.
const (
	DefaultBaseURL = "https://d28zzqy0iyovbz.cloudfront.net"
	DefaultTimeout = 10 * time.Second
	PreviewFile    = "xl.webp"
)

// DefaultVersions are the storage layouts probed by Resolve, newest first.
// The empty version is the model root.
var DefaultVersions = []string{"v3", "v2", ""}

// RequiredFiles are downloaded in order; the first failure aborts.
var RequiredFiles = []string{
	MetaFile,
	MeansUpper + ".webp",
	MeansLower + ".webp",
	ScalesName + ".webp",
	QuatsName + ".webp",
	SH0Name + ".webp",
}

// ErrModelNotFound is returned when no storage version serves meta.json.
var ErrModelNotFound = errors.New("model not found")

// ErrInvalidModelID is returned for ids that are not a single path element.
var ErrInvalidModelID = errors.New("invalid model id")

// ValidateModelID rejects ids that would escape the model URL or the
// download directory.
func ValidateModelID(modelID string) error {
	switch {
	case modelID == "", modelID == ".", modelID == "..", strings.ContainsAny(modelID, "/\\"):
		return fmt.Errorf("%w: %q", ErrInvalidModelID, modelID)
	}
	return nil
}

// Fetcher downloads compressed assets by model id.
type Fetcher struct {
	Client     *http.Client
	BaseURL    string
	Versions   []string
	Timeout    time.Duration // per request
	ReuseCache bool          // skip files already present and non-empty
	KeepTemp   bool          // Rip leaves channel images in place
}

// NewFetcher creates a Fetcher with the default versions and timeout.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		Client:     http.DefaultClient,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Versions:   DefaultVersions,
		Timeout:    DefaultTimeout,
		ReuseCache: true,
	}
}

// Manifest describes a completed download.
type Manifest struct {
	ModelID string
	BaseURL string // resolved version URL
	Dir     string
	Preview bool     // preview image present
	Fetched []string // files downloaded in this run
	Reused  []string // files taken from the cache
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return DefaultTimeout
}

func (f *Fetcher) versions() []string {
	if f.Versions != nil {
		return f.Versions
	}
	return DefaultVersions
}

func (f *Fetcher) modelURL(modelID, version string) string {
	u := strings.TrimRight(f.BaseURL, "/") + "/" + modelID
	if version != "" {
		u += "/" + version
	}
	return u
}

// Resolve probes each storage version with a HEAD request for meta.json
// and returns the first base URL that answers 200.
func (f *Fetcher) Resolve(ctx context.Context, modelID string) (string, error) {
	if err := ValidateModelID(modelID); err != nil {
		return "", err
	}
	for _, v := range f.versions() {
		base := f.modelURL(modelID, v)
		status, err := f.head(ctx, base+"/"+MetaFile)
		if err == nil && status == http.StatusOK {
			return base, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", &splat.DownloadError{URL: f.modelURL(modelID, "") + "/" + MetaFile, Err: ErrModelNotFound}
}

func (f *Fetcher) head(ctx context.Context, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// get downloads url into path. Failures are *splat.DownloadError.
func (f *Fetcher) get(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &splat.DownloadError{URL: url, Err: err}
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return &splat.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &splat.DownloadError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &splat.DownloadError{URL: url, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func cached(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Download resolves modelID and fetches its assets into dir.
//
// The preview image is best effort: it is tried under the resolved
// version, then under the model root, and failures are ignored. The
// required files are fetched sequentially and the first failure aborts.
func (f *Fetcher) Download(ctx context.Context, modelID, dir string) (*Manifest, error) {
	if err := ValidateModelID(modelID); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	base, err := f.Resolve(ctx, modelID)
	if err != nil {
		return nil, err
	}
	m := &Manifest{ModelID: modelID, BaseURL: base, Dir: dir}

	preview := filepath.Join(dir, PreviewFile)
	switch {
	case f.ReuseCache && cached(preview):
		m.Preview = true
	case f.get(ctx, base+"/"+PreviewFile, preview) == nil:
		m.Preview = true
	case base != f.modelURL(modelID, "") && f.get(ctx, f.modelURL(modelID, "")+"/"+PreviewFile, preview) == nil:
		m.Preview = true
	}

	for _, name := range RequiredFiles {
		path := filepath.Join(dir, name)
		if f.ReuseCache && cached(path) {
			m.Reused = append(m.Reused, name)
			continue
		}
		if err := f.get(ctx, base+"/"+name, path); err != nil {
			return m, err
		}
		m.Fetched = append(m.Fetched, name)
	}
	return m, nil
}

// KeepFiles lists the files Cleanup preserves for modelID.
func KeepFiles(modelID string) []string {
	return []string{
		modelID + ".ply",
		modelID + ".ply.zst",
		PreviewFile,
		"xl.png",
		MetaFile,
	}
}

// Temporary returns the downloaded files of m that Cleanup may remove:
// the fetched or reused required files outside keep.
func (m *Manifest) Temporary(keep []string) []string {
	var out []string
	for _, name := range append(append([]string(nil), m.Fetched...), m.Reused...) {
		if !slices.Contains(keep, name) {
			out = append(out, name)
		}
	}
	return out
}

// Cleanup removes the named regular files from dir. Names that are not
// required asset files are never touched, and neither is anything in keep.
func Cleanup(dir string, names, keep []string) ([]string, error) {
	var removed []string
	var errs []error
	for _, name := range names {
		if !slices.Contains(RequiredFiles, name) || slices.Contains(keep, name) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Lstat(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed, errors.Join(errs...)
}

// RipResult is the outcome of Rip.
type RipResult struct {
	Manifest *Manifest
	Set      *splat.Set
	PLYPath  string
	Removed  []string
}

// Rip downloads modelID into dir, reconstructs it and writes the
// canonical PLY <modelID>.ply (or .ply.zst when compress is set).
// The channel images this download produced are removed unless KeepTemp
// is set. Other files in dir are left alone.
func (f *Fetcher) Rip(ctx context.Context, modelID, dir string, compress bool) (*RipResult, error) {
	m, err := f.Download(ctx, modelID, dir)
	if err != nil {
		return nil, err
	}
	src, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	set, err := Decode(src)
	if err != nil {
		return nil, err
	}

	out := filepath.Join(dir, modelID+".ply")
	if compress {
		out += ".zst"
	}
	if err := splat.WritePLYFile(out, set); err != nil {
		return nil, err
	}

	res := &RipResult{Manifest: m, Set: set, PLYPath: out}
	if !f.KeepTemp {
		keep := KeepFiles(modelID)
		removed, err := Cleanup(dir, m.Temporary(keep), keep)
		if err != nil {
			return res, fmt.Errorf("cleanup: %w", err)
		}
		res.Removed = removed
	}
	return res, nil
}
