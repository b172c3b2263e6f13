package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ArrivalRecord is one upcoming train at the queried station, as decoded from
// the realtimeArrivalList entries of the Seoul open API.
// Fields map 1:1 to the upstream JSON; numeric values arrive as their
// literal text.
type ArrivalRecord struct {
	// Display name of the line, e.g. "성수행 - 을지로입구방면".
	// Empty when the upstream entry omitted it.
	LineName string `json:"trainLineNm"`

	// Free-text time to arrival, e.g. "3분 후 (시청)". Not guaranteed to
	// contain a number.
	ArrivalMessage string `json:"arvlMsg2"`

	// Supplemental upstream fields shown on the query screen when present
	SubwayID         string `json:"subwayId,omitempty"`
	Direction        string `json:"updnLine,omitempty"`
	StationName      string `json:"statnNm,omitempty"`
	Destination      string `json:"bstatnNm,omitempty"`
	ArrivalLocation  string `json:"arvlMsg3,omitempty"`
	ArrivalCode      string `json:"arvlCd,omitempty"`
	ArrivalSeconds   string `json:"barvlDt,omitempty"`
	ReceivedAtString string `json:"recptnDt,omitempty"`
}

// Handoff is the immutable snapshot passed from the query screen to the
// visualization screen. It lives in a HandoffRepository until ExpiresAt.
type Handoff struct {
	ID        uuid.UUID       `json:"id"`
	Station   string          `json:"station"`
	Records   []ArrivalRecord `json:"records"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// NewHandoff snapshots records for station. The slice is copied so later
// changes by the caller never reach the stored value.
func NewHandoff(station string, records []ArrivalRecord, now time.Time, ttl time.Duration) Handoff {
	return Handoff{
		ID:        uuid.New(),
		Station:   station,
		Records:   CloneRecords(records),
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(ttl),
	}
}

// Expired reports whether the handoff is no longer valid at now
func (h *Handoff) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Validate checks the handoff before it is written to a store
func (h *Handoff) Validate() error {
	if h.ID == uuid.Nil {
		return errors.New("handoff id cannot be nil")
	}
	if h.ExpiresAt.Before(h.CreatedAt) {
		return errors.New("handoff expires before it was created")
	}
	return nil
}

// Clone returns a deep copy of the handoff
func (h Handoff) Clone() Handoff {
	h.Records = CloneRecords(h.Records)
	return h
}

// CloneRecords copies a record slice. A nil input stays nil.
func CloneRecords(records []ArrivalRecord) []ArrivalRecord {
	if records == nil {
		return nil
	}
	out := make([]ArrivalRecord, len(records))
	copy(out, records)
	return out
}
