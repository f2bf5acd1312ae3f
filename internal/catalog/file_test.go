package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoresJSON = `{"walkability":8,"transit":7,"safety":9,"nightlife":5,"familyFriendly":4,"culture":7,"outdoors":6,"dining":8,"cost":5}`

func neighborhoodDoc(id string) string {
	return `{"id":"` + id + `","name":"` + id + `","city":"Oakland","state":"CA",
"coordinates":{"lat":37.8,"lng":-122.27},"scores":` + scoresJSON + `,
"demographics":{"medianAge":36,"medianIncome":82000,"population":30000,"density":9000},
"amenities":["Lake Merritt"],"description":"test","dataQuality":0.9}`
}

func TestDecode(t *testing.T) {
	got, err := Decode([]byte(`[` + neighborhoodDoc("uptown") + `,` + neighborhoodDoc("temescal") + `]`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "uptown", got[0].ID)
	assert.Equal(t, "temescal", got[1].ID)
	assert.Equal(t, 82000.0, got[1].Demographics.MedianIncome)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not an array", `{"id":"x"}`, "JSON array"},
		{"duplicate id", `[` + neighborhoodDoc("uptown") + `,` + neighborhoodDoc("uptown") + `]`, `share id "uptown"`},
		{"schema violation", `[` + neighborhoodDoc("uptown") + `,{"id":"bad","name":"bad","scores":{},"demographics":{},"dataQuality":3}]`, "entry 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, sampleJSON, 0o600))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, SampleNeighborhoods(), got)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
