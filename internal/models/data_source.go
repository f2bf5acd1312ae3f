package models

import "time"

// DataSource describes where neighborhood attributes come from and how much
// they can be trusted. Coverage lists factor names or other categories
// ("demographics", "housing").
type DataSource struct {
	Name        string    `json:"name"`
	Reliability float64   `json:"reliability"`
	LastUpdated time.Time `json:"lastUpdated"`
	Coverage    []string  `json:"coverage"`
}
