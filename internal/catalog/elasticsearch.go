package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/models"
)

// NeighborhoodMapping is the index mapping used by EnsureIndex and the seeder.
const NeighborhoodMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "city":        {"type": "keyword"},
      "state":       {"type": "keyword"},
      "coordinates": {"properties": {"lat": {"type": "float"}, "lng": {"type": "float"}}},
      "scores":      {"type": "object"},
      "demographics":{"type": "object"},
      "amenities":   {"type": "keyword"},
      "description": {"type": "text"},
      "imageUrl":    {"type": "keyword", "index": false},
      "dataQuality": {"type": "float"},
      "sortOrder":   {"type": "integer"}
    }
  }
}`

// maxCatalogSize bounds a single match_all read.
const maxCatalogSize = 1000

type esDocument struct {
	models.Neighborhood
	SortOrder int `json:"sortOrder"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type esGetResponse struct {
	Found  bool            `json:"found"`
	Source esDocument      `json:"_source"`
	Error  json.RawMessage `json:"error"`
}

// ElasticsearchProvider reads the catalog from a search index.
type ElasticsearchProvider struct {
	es    *database.ElasticsearchClient
	index string
}

func NewElasticsearchProvider(es *database.ElasticsearchClient, index string) *ElasticsearchProvider {
	return &ElasticsearchProvider{es: es, index: index}
}

func (p *ElasticsearchProvider) Name() string { return "elasticsearch" }

func (p *ElasticsearchProvider) GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	defer observeFetch(p.Name(), time.Now())

	query := fmt.Sprintf(`{"query":{"match_all":{}},"size":%d,"sort":[{"sortOrder":"asc"},{"id":"asc"}]}`, maxCatalogSize)
	client := p.es.Client
	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(p.index),
		client.Search.WithBody(strings.NewReader(query)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", p.index, err)
	}
	defer res.Body.Close()

	if err := p.checkResponse(res); err != nil {
		return nil, err
	}

	var body esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.Neighborhood, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		out = append(out, hit.Source.Neighborhood)
	}
	return out, nil
}

func (p *ElasticsearchProvider) GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error) {
	client := p.es.Client
	res, err := client.Get(p.index, id, client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", p.index, id, err)
	}
	defer res.Body.Close()

	var body esGetResponse
	if res.StatusCode == http.StatusNotFound {
		// A missing document and a missing index both answer 404.
		if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error == nil && !body.Found {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, p.index)
	}
	if err := p.checkResponse(res); err != nil {
		return nil, err
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	n := body.Source.Neighborhood
	return &n, nil
}

// IndexMany bulk-indexes the catalog using neighborhood ids as document ids.
func (p *ElasticsearchProvider) IndexMany(ctx context.Context, catalog []models.Neighborhood) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, n := range catalog {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": p.index, "_id": n.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(esDocument{Neighborhood: n, SortOrder: i}); err != nil {
			return fmt.Errorf("encode %s: %w", n.ID, err)
		}
	}

	client := p.es.Client
	res, err := client.Bulk(bytes.NewReader(buf.Bytes()),
		client.Bulk.WithContext(ctx),
		client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.Status())
	}

	var summary struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&summary); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if summary.Errors {
		return fmt.Errorf("bulk index into %s reported item failures", p.index)
	}
	return nil
}

func (p *ElasticsearchProvider) checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, p.index)
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("elasticsearch %s: %s", res.Status(), strings.TrimSpace(string(msg)))
}
