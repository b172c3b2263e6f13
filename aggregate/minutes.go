// Package aggregate derives the chart views from a list of arrival records.
// Every function here is pure: no I/O, no shared state, and the input slice
// is never modified.
package aggregate

import (
	"math"
	"regexp"
	"strconv"

	"github.com/you/subwayviz/models"
)

// digitRunRegex matches the first run of ASCII digits in an arrival message
var digitRunRegex = regexp.MustCompile(`[0-9]+`)

// ExtractMinutes returns the minutes-to-arrival encoded in the record's
// arrival message: the first contiguous digit run parsed as base 10, or 0
// when the message has no digits. A run too large for int saturates to
// math.MaxInt.
func ExtractMinutes(r models.ArrivalRecord) int {
	match := digitRunRegex.FindString(r.ArrivalMessage)
	if match == "" {
		return 0
	}

	minutes, err := strconv.Atoi(match)
	if err != nil {
		// Only a range error is possible here since match is all digits
		return math.MaxInt
	}
	return minutes
}

// Minutes returns ExtractMinutes for each record, in order
func Minutes(records []models.ArrivalRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = ExtractMinutes(r)
	}
	return out
}
