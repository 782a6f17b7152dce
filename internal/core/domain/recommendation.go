package domain

import "time"

type Suggestions struct {
	Suggestions []string `json:"suggestions"`
}

type Recommendation struct {
	Suggestions []string  `json:"suggestions"`
	UserID      string    `json:"userId,omitempty"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"generatedAt"`
}
