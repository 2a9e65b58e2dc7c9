package model

// Incident is a real-world exploit, reshaped from the public hacks feed.
// Amount is kept as a float because the feed reports USD values with cents
// and sometimes null.
type Incident struct {
	Technique string   `json:"technique"`
	Amount    *float64 `json:"amount"`
	Source    string   `json:"source"`
}
