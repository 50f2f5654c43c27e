package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"candy-drop/pkg/models"

	"go.uber.org/zap"
)

// ErrOffchainFetch is returned when an off-chain metadata document cannot be loaded
var ErrOffchainFetch = errors.New("off-chain metadata fetch failed")

// maxDocumentSize bounds the body read from a metadata host
const maxDocumentSize = 1 << 20

// MetadataClient fetches the JSON documents referenced by metadata URIs
type MetadataClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMetadataClient creates a new client; timeout bounds every request
func NewMetadataClient(timeout time.Duration, logger *zap.Logger) *MetadataClient {
	return &MetadataClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchDocument loads and decodes the document at uri
func (c *MetadataClient) FetchDocument(ctx context.Context, uri string) (models.OffchainMetadata, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return models.OffchainMetadata{}, fmt.Errorf("%w: empty uri", ErrOffchainFetch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return models.OffchainMetadata{}, fmt.Errorf("%w: error creating request: %v", ErrOffchainFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.OffchainMetadata{}, fmt.Errorf("%w: error executing request: %v", ErrOffchainFetch, err)
	}
	defer resp.Body.Close()

	// Read the response body
	body := new(bytes.Buffer)
	if _, err = body.ReadFrom(http.MaxBytesReader(nil, resp.Body, maxDocumentSize)); err != nil {
		return models.OffchainMetadata{}, fmt.Errorf("%w: error reading response body: %v", ErrOffchainFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.OffchainMetadata{}, fmt.Errorf("%w: unexpected status code: %d", ErrOffchainFetch, resp.StatusCode)
	}

	var doc models.OffchainMetadata
	if err := json.Unmarshal(body.Bytes(), &doc); err != nil {
		return models.OffchainMetadata{}, fmt.Errorf("%w: error decoding response: %v", ErrOffchainFetch, err)
	}
	if doc.Image == "" {
		return models.OffchainMetadata{}, fmt.Errorf("%w: document has no image", ErrOffchainFetch)
	}

	c.logger.Debug("fetched metadata document", zap.String("uri", uri), zap.String("name", doc.Name))

	return doc, nil
}
