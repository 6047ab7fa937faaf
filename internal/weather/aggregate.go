package weather

import (
	"sort"
	"time"
)

// DailySummary condenses the forecast steps of one calendar day.
type DailySummary struct {
	Date    string        `json:"date"` // yyyy-MM-dd
	MinTemp float64       `json:"minTemperatureC"`
	MaxTemp float64       `json:"maxTemperatureC"`
	AvgTemp float64       `json:"avgTemperatureC"`
	Icon    string        `json:"icon"`
	Kind    ConditionKind `json:"condition"`
	Steps   int           `json:"steps"`
}

// Summarize groups forecast steps by date. Temperatures are min/max/averaged; the icon and
// condition are selected by majority of the first condition of each step (earliest wins ties).
// Steps whose timestamp cannot be parsed are skipped.
func Summarize(f Forecast) []DailySummary {
	type bucket struct {
		sum, min, max float64
		steps         int
		iconCounts    map[string]int
		iconOrder     []string
		kinds         map[string]ConditionKind
	}

	buckets := make(map[string]*bucket)
	for _, e := range f {
		ts, err := time.Parse(TimestampLayout, e.Timestamp)
		if err != nil {
			continue
		}
		day := ts.Format(time.DateOnly)

		b, ok := buckets[day]
		if !ok {
			b = &bucket{
				min:        e.Temperature,
				max:        e.Temperature,
				iconCounts: make(map[string]int),
				kinds:      make(map[string]ConditionKind),
			}
			buckets[day] = b
		}

		b.sum += e.Temperature
		b.steps++
		if e.Temperature < b.min {
			b.min = e.Temperature
		}
		if e.Temperature > b.max {
			b.max = e.Temperature
		}

		if len(e.Conditions) > 0 {
			c := e.Conditions[0]
			if _, seen := b.iconCounts[c.Icon]; !seen {
				b.iconOrder = append(b.iconOrder, c.Icon)
				b.kinds[c.Icon] = c.Kind()
			}
			b.iconCounts[c.Icon]++
		}
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DailySummary, 0, len(days))
	for _, d := range days {
		b := buckets[d]

		icon := ""
		kind := ConditionUnknown
		best := 0
		for _, candidate := range b.iconOrder {
			if n := b.iconCounts[candidate]; n > best {
				best = n
				icon = candidate
				kind = b.kinds[candidate]
			}
		}

		out = append(out, DailySummary{
			Date:    d,
			MinTemp: b.min,
			MaxTemp: b.max,
			AvgTemp: b.sum / float64(b.steps),
			Icon:    icon,
			Kind:    kind,
			Steps:   b.steps,
		})
	}
	return out
}
