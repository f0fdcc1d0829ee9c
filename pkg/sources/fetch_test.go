package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list":
			_, _ = w.Write([]byte("||ads.example.com^\n"))
		case "/html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html></html>"))
		case "/missing":
			w.Header().Set("Server", "stub")
			w.WriteHeader(http.StatusNotFound)
		case "/empty":
			w.Header().Set("Content-Type", "text/plain")
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(&HTTPConfig{ContentType: PlainText, MaxSize: datasize.KB})
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		text, err := f.Fetch(ctx, Source{ID: "a", Location: server.URL + "/list"})
		require.NoError(t, err)
		assert.Equal(t, "||ads.example.com^\n", text)
	})

	t.Run("status", func(t *testing.T) {
		_, err := f.Fetch(ctx, Source{ID: "a", Location: server.URL + "/missing"})
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
		assert.Equal(t, "stub", statusErr.Server)
	})

	t.Run("content_type", func(t *testing.T) {
		_, err := f.Fetch(ctx, Source{ID: "a", Location: server.URL + "/html"})
		var ctErr *ContentTypeError
		require.ErrorAs(t, err, &ctErr)
		assert.Equal(t, PlainText, ctErr.Expected)
	})

	t.Run("content_type_override", func(t *testing.T) {
		text, err := f.Fetch(ctx, Source{ID: "a", Location: server.URL + "/html", ContentType: "text/html"})
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", text)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := f.Fetch(ctx, Source{ID: "a", Location: server.URL + "/empty"})
		assert.ErrorIs(t, err, errEmptyBody)
	})

	t.Run("too_big", func(t *testing.T) {
		_, err := f.Fetch(ctx, Source{ID: "a", Location: server.URL + "/big"})
		assert.ErrorContains(t, err, "exceeds")
	})
}

func TestHTTPFetcher_Auth(t *testing.T) {
	var gotAuth, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte("||a.example.com^\n"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(&HTTPConfig{})
	ctx := context.Background()

	_, err := f.Fetch(ctx, Source{Location: server.URL, Auth: AuthConfig{Token: "secret"}})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)

	_, err = f.Fetch(ctx, Source{Location: server.URL, Auth: AuthConfig{Token: "k", Header: "X-Api-Key", Scheme: "Key"}})
	require.NoError(t, err)
	assert.Equal(t, "Key k", gotKey)

	_, err = f.Fetch(ctx, Source{Location: server.URL, Auth: AuthConfig{Username: "u", Password: "p"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "))
}

func TestHTTPFetcher_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.0.0.0 file.example.com\n"), 0o600))

	f := NewHTTPFetcher(&HTTPConfig{ContentType: PlainText})
	for _, location := range []string{path, "file://" + path} {
		text, err := f.Fetch(context.Background(), Source{Location: location})
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0 file.example.com\n", text)
	}

	_, err := f.Fetch(context.Background(), Source{Location: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}
