package immoweb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immoweb-scraper/config"
	"immoweb-scraper/utils"
)

func TestCollyFetcherOK(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(searchPage("/en/classified/1"))
	}))
	defer srv.Close()

	f := NewCollyFetcher(FetcherConfig{
		UserAgent: "test-agent",
		Headers:   map[string]string{"Accept-Language": "fr-BE", "User-Agent": "ignored"},
		Timeout:   5 * time.Second,
	})
	defer f.Close()

	body, err := f.Fetch(context.Background(), srv.URL+"/search?page=1")
	require.NoError(t, err)
	assert.Contains(t, string(body), "card__title-link")
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "fr-BE", gotLang)
}

func TestCollyFetcherNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewCollyFetcher(FetcherConfig{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL+"/classified/404")

	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %v", err)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestCollyFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewCollyFetcher(FetcherConfig{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL+"/slow")

	var fe *FetchError
	require.True(t, errors.As(err, &fe), "expected *FetchError, got %v", err)
	assert.Zero(t, fe.StatusCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCollyFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL + "/gone"
	srv.Close()

	_, err := NewCollyFetcher(FetcherConfig{Timeout: time.Second}).Fetch(context.Background(), target)
	var fe *FetchError
	assert.True(t, errors.As(err, &fe), "expected *FetchError, got %v", err)
}

func TestNewFetcherMode(t *testing.T) {
	cfg := config.FromEnv()
	cfg.FetchMode = config.FetchModeStatic
	f, err := NewFetcher(cfg, utils.NewDiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &CollyFetcher{}, f)

	cfg.FetchMode = "carrier-pigeon"
	_, err = NewFetcher(cfg, utils.NewDiscardLogger())
	assert.Error(t, err)
}
