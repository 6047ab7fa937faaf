package httpapi

import "github.com/i474232898/weather-forecast/internal/weather"

type conditionView struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconURL     string `json:"iconUrl,omitempty"`
}

type entryView struct {
	Timestamp   string          `json:"timestamp"`
	Temperature float64         `json:"temperatureC"`
	Conditions  []conditionView `json:"conditions"`
}

type forecastResponse struct {
	Location string      `json:"location,omitempty"`
	Entries  []entryView `json:"entries"`
}

type requestView struct {
	ID       string               `json:"id"`
	Location string               `json:"location"`
	Status   weather.RequestState `json:"status"`
	Entries  []entryView          `json:"entries,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func toEntryViews(f weather.Forecast) []entryView {
	out := make([]entryView, 0, len(f))
	for _, e := range f {
		conds := make([]conditionView, 0, len(e.Conditions))
		for _, c := range e.Conditions {
			conds = append(conds, conditionView{
				Main:        c.Main,
				Description: c.Description,
				Icon:        c.Icon,
				IconURL:     c.IconURL(),
			})
		}
		out = append(out, entryView{
			Timestamp:   e.Timestamp,
			Temperature: e.Temperature,
			Conditions:  conds,
		})
	}
	return out
}

func toRequestView(st weather.RequestStatus) requestView {
	v := requestView{
		ID:       st.ID,
		Location: st.Location,
		Status:   st.State,
	}
	if st.State == weather.RequestSucceeded {
		v.Entries = toEntryViews(st.Forecast)
	}
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	return v
}
