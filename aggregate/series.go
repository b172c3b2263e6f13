package aggregate

import (
	"fmt"

	"github.com/you/subwayviz/models"
)

const (
	BarSeriesLabel  = "도착까지 남은 시간 (분)"
	LineSeriesLabel = "도착 예정 시간 분포"
)

// BarSeries shapes one bar per record: label = line name, value = minutes
func BarSeries(records []models.ArrivalRecord) models.BarSeries {
	labels := make([]string, len(records))
	for i, r := range records {
		labels[i] = r.LineName
	}
	return models.BarSeries{
		Label:  BarSeriesLabel,
		Labels: labels,
		Values: Minutes(records),
	}
}

// BubbleColor is the fill colour for the bubble at index i
func BubbleColor(i int) string {
	return fmt.Sprintf("rgba(%d, %d, 192, 0.6)", (i*50)%255, (i*100)%255)
}

// BubbleSeries shapes one bubble per line: x = 1-based line index,
// y = count, r = BubbleWeight(count).
func BubbleSeries(counts LineArrivalCounts) models.BubbleSeries {
	points := make([]models.BubblePoint, len(counts.Lines))
	for i, lc := range counts.Lines {
		points[i] = models.BubblePoint{
			Label: lc.Line,
			X:     i + 1,
			Y:     lc.Count,
			R:     BubbleWeight(lc.Count),
			Color: BubbleColor(i),
		}
	}
	return models.BubbleSeries{Points: points}
}

// LineSeries shapes the histogram: x = bucket label, y = count
func LineSeries(hist MinuteHistogram) models.LineSeries {
	return models.LineSeries{
		Label:  LineSeriesLabel,
		Labels: hist.Labels(),
		Values: hist.Counts(),
	}
}

// BuildViews runs the three aggregations over records. Callers must
// short-circuit an empty list to a no-data display before calling this.
func BuildViews(records []models.ArrivalRecord) models.Views {
	return models.Views{
		Bar:    BarSeries(records),
		Bubble: BubbleSeries(CountByLine(records)),
		Line:   LineSeries(BucketizeMinutes(records)),
	}
}
