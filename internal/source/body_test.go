package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirSource_Body(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ci/merge_trains.md", "# Merge trains\n")

	src := NewDirSource(root, 0)
	body, err := src.Body(context.Background(), "ci/merge_trains.md")
	require.NoError(t, err)
	require.Equal(t, "# Merge trains\n", string(body))

	_, err = src.Body(context.Background(), "ci/missing.md")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirSource_RejectsEscapes(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "docs")
	writeFile(t, parent, "secret.md", "secret")
	writeFile(t, root, "a.md", "a")

	src := NewDirSource(root, 0)
	for _, id := range []string{"../secret.md", "ci/../../secret.md", "", "  "} {
		_, err := src.Body(context.Background(), id)
		require.Error(t, err, "identifier %q", id)
	}

	require.NoError(t, os.Symlink(filepath.Join(parent, "secret.md"), filepath.Join(root, "link.md")))
	_, err := src.Body(context.Background(), "link.md")
	require.Error(t, err)
}

func TestDirSource_SizeLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.md", strings.Repeat("x", 64))

	_, err := NewDirSource(root, 16).Body(context.Background(), "big.md")
	require.ErrorIs(t, err, ErrTooLarge)

	body, err := NewDirSource(root, 64).Body(context.Background(), "big.md")
	require.NoError(t, err)
	require.Len(t, body, 64)
}

func TestDirSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirSource(t.TempDir(), 0).Body(ctx, "a.md")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource_Body(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		w.Write([]byte("# Body"))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/raw/", "secret", time.Second, 0)
	defer src.Close()

	body, err := src.Body(context.Background(), "ci/merge trains.md")
	require.NoError(t, err)
	require.Equal(t, "# Body", string(body))
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "/raw/ci/merge%20trains.md", gotPath)
}

func TestHTTPSource_StatusMapping(t *testing.T) {
	tests := []struct {
		status    int
		notFound  bool
		retryable bool
	}{
		{http.StatusNotFound, true, false},
		{http.StatusTooManyRequests, false, true},
		{http.StatusBadGateway, false, true},
		{http.StatusServiceUnavailable, false, true},
		{http.StatusForbidden, false, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		_, err := NewHTTPSource(srv.URL, "", time.Second, 0).Body(context.Background(), "a.md")
		srv.Close()

		require.Error(t, err, "status %d", tt.status)
		require.Equal(t, tt.notFound, errors.Is(err, ErrNotFound), "status %d", tt.status)
		require.Equal(t, tt.retryable, IsTransient(err), "status %d", tt.status)
	}
}

func TestHTTPSource_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("y", 100)))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, "", time.Second, 10).Body(context.Background(), "a.md")
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestHTTPSource_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewHTTPSource(srv.URL, "", 0, 0).Body(context.Background(), "a.md")
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(&UpstreamError{Status: 503}))
	require.True(t, IsTransient(errors.Join(errors.New("ctx"), &UpstreamError{Status: 429})))
	require.False(t, IsTransient(ErrNotFound))
	require.False(t, IsTransient(nil))
}

func TestBackoff(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		require.GreaterOrEqual(t, d, base)
		require.Less(t, d, base+base/2)
	}
}
