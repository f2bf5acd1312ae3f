package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"neighborhood-matcher/internal/common/validation"
	"neighborhood-matcher/internal/models"
)

// LoadFile reads a JSON array of neighborhoods. Every element is checked
// against the neighborhood schema before decoding; all violations are
// reported together.
func LoadFile(path string) ([]models.Neighborhood, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Decode(raw)
}

// Decode validates and decodes a catalog document.
func Decode(raw []byte) ([]models.Neighborhood, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("catalog must be a JSON array: %w", err)
	}

	var problems []string
	for i, doc := range docs {
		result, err := validation.ValidateNeighborhoodJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if !result.Valid {
			problems = append(problems, fmt.Sprintf("entry %d: %s", i, result.Summary()))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(problems, " | "))
	}

	out := make([]models.Neighborhood, 0, len(docs))
	seen := make(map[string]int, len(docs))
	for i, doc := range docs {
		var n models.Neighborhood
		if err := json.Unmarshal(doc, &n); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if prev, dup := seen[n.ID]; dup {
			return nil, fmt.Errorf("catalog entries %d and %d share id %q", prev, i, n.ID)
		}
		seen[n.ID] = i
		out = append(out, n)
	}
	return out, nil
}
