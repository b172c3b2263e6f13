package aggregate

import "github.com/you/subwayviz/models"

// UnknownLine groups records whose line name is missing
const UnknownLine = "알 수 없는 노선"

const (
	bubbleScale     = 3
	bubbleMinRadius = 10
)

// LineCount is the number of records sharing one line name
type LineCount struct {
	Line  string `json:"line"`
	Count int    `json:"count"`
}

// LineArrivalCounts maps line name to record count, kept in first-seen order
// so chart colours and positions are stable across renders.
type LineArrivalCounts struct {
	Lines []LineCount `json:"lines"`
}

// Get returns the count for line, or 0 if it never appeared
func (c LineArrivalCounts) Get(line string) int {
	for _, lc := range c.Lines {
		if lc.Line == line {
			return lc.Count
		}
	}
	return 0
}

// Total is the sum of all counts. It always equals the number of records
// the counts were built from.
func (c LineArrivalCounts) Total() int {
	total := 0
	for _, lc := range c.Lines {
		total += lc.Count
	}
	return total
}

// CountByLine groups records by line name. Missing names are counted under
// UnknownLine.
func CountByLine(records []models.ArrivalRecord) LineArrivalCounts {
	index := make(map[string]int)
	counts := LineArrivalCounts{Lines: []LineCount{}}

	for _, r := range records {
		line := r.LineName
		if line == "" {
			line = UnknownLine
		}

		i, ok := index[line]
		if !ok {
			i = len(counts.Lines)
			index[line] = i
			counts.Lines = append(counts.Lines, LineCount{Line: line})
		}
		counts.Lines[i].Count++
	}

	return counts
}

// BubbleWeight sizes a line's bubble from its count: three units per record
// with a floor so singleton lines stay visible.
func BubbleWeight(count int) int {
	return max(count*bubbleScale, bubbleMinRadius)
}
