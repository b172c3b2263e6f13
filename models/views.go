package models

import "time"

// BarSeries is the labeled bar series: one bar per record, label = line
// name, value = minutes to arrival.
type BarSeries struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// BubblePoint is a single bubble in the per-line distribution chart
type BubblePoint struct {
	Label string `json:"label"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	R     int    `json:"r"`
	Color string `json:"backgroundColor"`
}

// BubbleSeries holds one bubble per line, in first-seen order
type BubbleSeries struct {
	Points []BubblePoint `json:"points"`
}

// LineSeries is the labeled line/area series over histogram buckets
type LineSeries struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Views bundles the three chart series derived from one record list
type Views struct {
	Bar    BarSeries    `json:"bar"`
	Bubble BubbleSeries `json:"bubble"`
	Line   LineSeries   `json:"line"`
}

// ArrivalsResponse is the JSON response for GET /api/arrivals
type ArrivalsResponse struct {
	Station   string          `json:"station"`
	Arrivals  []ArrivalRecord `json:"arrivals"`
	Count     int             `json:"count"`
	HandoffID string          `json:"handoffId,omitempty"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// ViewsResponse is the JSON response for GET /api/handoffs/{handoffId}/views
type ViewsResponse struct {
	HandoffID string    `json:"handoffId"`
	Station   string    `json:"station"`
	Count     int       `json:"count"`
	Views     Views     `json:"views"`
	ExpiresAt time.Time `json:"expiresAt"`
}
