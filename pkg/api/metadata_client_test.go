package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFetchDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/fool.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"The Fool","symbol":"ARCANA","image":"https://arweave.net/fool.png","attributes":[]}`))
		case "/blank.json":
			_, _ = w.Write([]byte(`{"name":"Blank"}`))
		case "/broken.json":
			_, _ = w.Write([]byte(`{"name":`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewMetadataClient(time.Second, zaptest.NewLogger(t))

	doc, err := client.FetchDocument(context.Background(), server.URL+"/fool.json")
	require.NoError(t, err)
	assert.Equal(t, "The Fool", doc.Name)
	assert.Equal(t, "ARCANA", doc.Symbol)
	assert.Equal(t, "https://arweave.net/fool.png", doc.Image)

	for _, path := range []string{"/blank.json", "/broken.json", "/missing.json"} {
		_, err := client.FetchDocument(context.Background(), server.URL+path)
		assert.ErrorIs(t, err, ErrOffchainFetch, path)
	}

	_, err = client.FetchDocument(context.Background(), "")
	assert.ErrorIs(t, err, ErrOffchainFetch)
}

func TestFetchDocumentHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewMetadataClient(5*time.Second, zaptest.NewLogger(t)).FetchDocument(ctx, server.URL)
	assert.ErrorIs(t, err, ErrOffchainFetch)
}
