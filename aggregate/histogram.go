package aggregate

import (
	"fmt"

	"github.com/you/subwayviz/models"
)

// BucketBoundaries are the fixed histogram edges, in minutes. Values at or
// beyond the last edge fall in no bucket.
var BucketBoundaries = []int{0, 5, 10, 15, 20}

// Bucket is the half-open range [Low, High) and the number of records in it
type Bucket struct {
	Low   int `json:"low"`
	High  int `json:"high"`
	Count int `json:"count"`
}

// Contains reports whether minutes falls in [Low, High)
func (b Bucket) Contains(minutes int) bool {
	return minutes >= b.Low && minutes < b.High
}

// Label is the axis label for the bucket, e.g. "0-5분"
func (b Bucket) Label() string {
	return fmt.Sprintf("%d-%d분", b.Low, b.High)
}

// MinuteHistogram is the ordered sequence of buckets built from
// BucketBoundaries
type MinuteHistogram struct {
	Buckets []Bucket `json:"buckets"`
}

// Counts returns the bucket counts in order
func (h MinuteHistogram) Counts() []int {
	out := make([]int, len(h.Buckets))
	for i, b := range h.Buckets {
		out[i] = b.Count
	}
	return out
}

// Labels returns the bucket labels in order
func (h MinuteHistogram) Labels() []string {
	out := make([]string, len(h.Buckets))
	for i, b := range h.Buckets {
		out[i] = b.Label()
	}
	return out
}

func emptyHistogram() MinuteHistogram {
	buckets := make([]Bucket, 0, len(BucketBoundaries)-1)
	for i := 0; i < len(BucketBoundaries)-1; i++ {
		buckets = append(buckets, Bucket{Low: BucketBoundaries[i], High: BucketBoundaries[i+1]})
	}
	return MinuteHistogram{Buckets: buckets}
}

// BucketizeMinutes histograms ExtractMinutes over records. A record with no
// digits counts as 0 minutes and lands in the first bucket. Records at 20
// minutes or more are dropped, not clamped into the last bucket, so the
// counts need not sum to len(records).
func BucketizeMinutes(records []models.ArrivalRecord) MinuteHistogram {
	hist := emptyHistogram()

	for _, r := range records {
		minutes := ExtractMinutes(r)
		for i := range hist.Buckets {
			if hist.Buckets[i].Contains(minutes) {
				hist.Buckets[i].Count++
				break
			}
		}
	}

	return hist
}
