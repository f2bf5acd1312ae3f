package models

// Budget is the monthly housing budget range. Min <= Max is a caller obligation.
type Budget struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UserProfile is the fully populated profile handed over by the form layer.
// Lifestyle preferences are expected in [1,10]; the engine does not clamp them.
type UserProfile struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Age        int          `json:"age"`
	Budget     Budget       `json:"budget"`
	Lifestyle  FactorVector `json:"lifestyle"`
	Priorities []Factor     `json:"priorities"`
}

// HasPriority reports whether f was marked as a priority. Any number of
// priorities is tolerated.
func (u UserProfile) HasPriority(f Factor) bool {
	for _, p := range u.Priorities {
		if p == f {
			return true
		}
	}
	return false
}
