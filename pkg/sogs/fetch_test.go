package sogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gsplat-palette/pkg/splat"
)

// assetServer serves files keyed by URL path and records requests.
type assetServer struct {
	mu    sync.Mutex
	files map[string][]byte
	log   []string
}

func (s *assetServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.log = append(s.log, r.Method+" "+r.URL.Path)
	data, ok := s.files[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Write(data)
}

func (s *assetServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func newAssetServer(t *testing.T, prefix string, files map[string][]byte) (*assetServer, *httptest.Server) {
	t.Helper()
	as := &assetServer{files: map[string][]byte{}}
	for name, data := range files {
		as.files[prefix+"/"+name] = data
	}
	srv := httptest.NewServer(as)
	t.Cleanup(srv.Close)
	return as, srv
}

func TestResolveVersions(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantSuf string
	}{
		{"v3", "/abc/v3", "/abc/v3"},
		{"v2", "/abc/v2", "/abc/v2"},
		{"root", "/abc", "/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newAssetServer(t, tt.prefix, map[string][]byte{MetaFile: []byte("{}")})
			f := NewFetcher(srv.URL)
			base, err := f.Resolve(context.Background(), "abc")
			require.NoError(t, err)
			assert.Equal(t, srv.URL+tt.wantSuf, base)
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	as, srv := newAssetServer(t, "/other", nil)
	f := NewFetcher(srv.URL)

	_, err := f.Resolve(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, splat.IsDownloadError(err))
	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.Equal(t, []string{
		"HEAD /abc/v3/meta.json",
		"HEAD /abc/v2/meta.json",
		"HEAD /abc/meta.json",
	}, as.requests())

	_, err = f.Resolve(context.Background(), "../x")
	assert.Error(t, err)
}

func TestDownloadAndRip(t *testing.T) {
	fx := newFixture(4, 2, 7)
	files := fx.files(t, ".webp")
	as, srv := newAssetServer(t, "/m1/v2", files)
	as.mu.Lock()
	as.files["/m1/xl.webp"] = []byte("preview")
	as.mu.Unlock()

	dir := t.TempDir()
	f := NewFetcher(srv.URL)
	res, err := f.Rip(context.Background(), "m1", dir, false)
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/m1/v2", res.Manifest.BaseURL)
	assert.True(t, res.Manifest.Preview)
	assert.Equal(t, RequiredFiles, res.Manifest.Fetched)
	assert.Equal(t, 7, res.Set.Len())
	assert.Equal(t, filepath.Join(dir, "m1.ply"), res.PLYPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"m1.ply", "xl.webp", "meta.json"}, names)

	got, err := splat.ReadPLY(res.PLYPath, splat.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, res.Set.Positions, got.Positions)
	assert.Equal(t, res.Set.Logits, got.Logits)
	assert.Equal(t, res.Set.Rotations, got.Rotations)
}

func TestDownloadMissingAsset(t *testing.T) {
	fx := newFixture(2, 2, 0)
	files := fx.files(t, ".webp")
	delete(files, "scales.webp")
	as, srv := newAssetServer(t, "/m2/v3", files)

	f := NewFetcher(srv.URL)
	_, err := f.Download(context.Background(), "m2", t.TempDir())
	require.Error(t, err)

	var de *splat.DownloadError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, http.StatusNotFound, de.Status)
	assert.True(t, strings.HasSuffix(de.URL, "/m2/v3/scales.webp"))

	for _, req := range as.requests() {
		assert.NotContains(t, req, "quats", "download must stop at the first missing asset")
	}
}

func TestDownloadReuseCache(t *testing.T) {
	fx := newFixture(2, 2, 0)
	_, srv := newAssetServer(t, "/m3/v3", fx.files(t, ".webp"))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetaFile), []byte("cached"), 0o644))

	f := NewFetcher(srv.URL)
	m, err := f.Download(context.Background(), "m3", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{MetaFile}, m.Reused)
	assert.False(t, m.Preview)

	data, err := os.ReadFile(filepath.Join(dir, MetaFile))
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))

	f.ReuseCache = false
	m, err = f.Download(context.Background(), "m3", dir)
	require.NoError(t, err)
	assert.Empty(t, m.Reused)
}

func TestDownloadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(srv.URL)
	f.Timeout = 50 * time.Millisecond
	_, err := f.Download(context.Background(), "slow", t.TempDir())
	require.Error(t, err)
	assert.True(t, splat.IsDownloadError(err))
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"m.ply", "xl.png", "meta.json", "quats.webp", "sh0.webp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "scales.webp"), 0o755))

	names := []string{"meta.json", "quats.webp", "sh0.webp", "scales.webp", "means_u.webp", "notes.txt"}
	removed, err := Cleanup(dir, names, KeepFiles("m"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"quats.webp", "sh0.webp"}, removed)

	for _, name := range []string{"m.ply", "xl.png", "meta.json", "notes.txt", "scales.webp"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRipKeepsUnrelatedFiles(t *testing.T) {
	fx := newFixture(2, 2, 3)
	_, srv := newAssetServer(t, "/m1/v3", fx.files(t, ".webp"))

	dir := t.TempDir()
	for _, name := range []string{"thesis.docx", "other_model.ply", "xl.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("mine"), 0o644))
	}

	res, err := NewFetcher(srv.URL).Rip(context.Background(), "m1", dir, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"means_u.webp", "means_l.webp", "scales.webp", "quats.webp", "sh0.webp"}, res.Removed)

	for _, name := range []string{"thesis.docx", "other_model.ply", "xl.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, "mine", string(data))
	}
}

func TestInvalidModelID(t *testing.T) {
	_, srv := newAssetServer(t, "/x", nil)
	f := NewFetcher(srv.URL)
	parent := t.TempDir()

	for _, id := range []string{"", ".", "..", "../x", `a\b`} {
		t.Run(id, func(t *testing.T) {
			_, err := f.Rip(context.Background(), id, filepath.Join(parent, id), false)
			assert.ErrorIs(t, err, ErrInvalidModelID)
		})
	}

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
