package model

import "time"

// Vehicle is one listing returned by car search.
type Vehicle struct {
	ID      string  `json:"id"`
	Make    string  `json:"make"`
	Model   string  `json:"model"`
	Year    int     `json:"year"`
	Price   float64 `json:"price"`
	Mileage int     `json:"mileage"`
	VIN     string  `json:"vin,omitempty"`
}

type SearchQuery struct {
	Make     string  `json:"make,omitempty"`
	Model    string  `json:"model,omitempty"`
	YearMin  int     `json:"year_min,omitempty"`
	YearMax  int     `json:"year_max,omitempty"`
	PriceMax float64 `json:"price_max,omitempty"`
	Page     int     `json:"page,omitempty"`
	PageSize int     `json:"page_size,omitempty"`
}

type SearchResult struct {
	Vehicles []Vehicle `json:"vehicles"`
	Total    int       `json:"total"`
}

// Deal ties a vehicle to an asking price the user is shopping against.
type Deal struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	AskingPrice float64   `json:"asking_price"`
	DealerName  string    `json:"dealer_name,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Favorite struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicle_id"`
	CreatedAt time.Time `json:"created_at"`
}

type SavedSearch struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Query     SearchQuery `json:"query"`
	CreatedAt time.Time   `json:"created_at"`
}

// DealEvaluation is the evaluation-pipeline resource: a scored verdict over
// a deal, built up by answering the backend's questions.
type DealEvaluation struct {
	ID        string            `json:"id"`
	DealID    string            `json:"deal_id"`
	Status    string            `json:"status"` // pending | awaiting_answers | scored
	Questions []string          `json:"questions,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
	Score     float64           `json:"score,omitempty"`
	Verdict   string            `json:"verdict,omitempty"`
}
