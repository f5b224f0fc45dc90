package deploy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMenu(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listofitems.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMenuHashStable(t *testing.T) {
	path := writeMenu(t, "drinks-Water\ndishes-Burger\n")

	first, err := MenuHash(path)
	require.NoError(t, err)
	second, err := MenuHash(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestMenuHashMissingFile(t *testing.T) {
	_, err := MenuHash(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestHashChanged(t *testing.T) {
	path := writeMenu(t, "drinks-Water\n")

	changed, current, err := HashChanged("", path)
	require.NoError(t, err)
	assert.True(t, changed, "empty previous hash always counts as changed")

	changed, _, err = HashChanged(current, path)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte("drinks-Water\ndesserts-Cake\n"), 0o644))
	changed, next, err := HashChanged(current, path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, current, next)
}

func TestSmokeOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/listofitems.txt":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	assert.NoError(t, Smoke(context.Background(), srv.URL, srv.Client()))
}

func TestSmokeMissingMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := Smoke(context.Background(), srv.URL, srv.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/listofitems.txt")
}

func TestSmokeServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	assert.Error(t, Smoke(context.Background(), srv.URL, nil))
}
