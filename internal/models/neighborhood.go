package models

// Coordinates is the neighborhood centroid. Informational only.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Demographics struct {
	MedianAge    float64 `json:"medianAge"`
	MedianIncome float64 `json:"medianIncome"`
	Population   int     `json:"population"`
	Density      float64 `json:"density"`
}

// Neighborhood is one catalog record. Scores use the 1-10 scale; a higher
// Cost score means cheaper. DataQuality is source completeness in [0,1].
type Neighborhood struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Coordinates  Coordinates  `json:"coordinates"`
	Scores       FactorVector `json:"scores"`
	Demographics Demographics `json:"demographics"`
	Amenities    []string     `json:"amenities"`
	Description  string       `json:"description"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	DataQuality  float64      `json:"dataQuality"`
}

// Location renders the "City, ST" label.
func (n Neighborhood) Location() string {
	switch {
	case n.City == "":
		return n.State
	case n.State == "":
		return n.City
	}
	return n.City + ", " + n.State
}
