package weather

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errMissingList = errors.New(`missing top-level "list" field`)

// forecastDocument mirrors the subset of the upstream 5-day forecast document we use.
type forecastDocument struct {
	List *[]forecastStep `json:"list"`
}

type forecastStep struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	DtTxt   string      `json:"dt_txt"`
}

// DecodeForecast parses an upstream response body. Malformed input, a missing "list"
// field or a "list" that is not an array of steps yield a *DecodeError.
func DecodeForecast(raw string) (Forecast, error) {
	var doc forecastDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if doc.List == nil {
		return nil, &DecodeError{Err: errMissingList}
	}

	steps := *doc.List
	forecast := make(Forecast, 0, len(steps))
	for _, s := range steps {
		forecast = append(forecast, ForecastEntry{
			Timestamp:   s.DtTxt,
			Temperature: s.Main.Temp,
			Conditions:  s.Weather,
		})
	}
	return forecast, nil
}

// EncodeForecast renders a forecast in the upstream document shape accepted by DecodeForecast.
func EncodeForecast(f Forecast) (string, error) {
	steps := make([]forecastStep, 0, len(f))
	for _, e := range f {
		var s forecastStep
		s.Main.Temp = e.Temperature
		s.Weather = e.Conditions
		s.DtTxt = e.Timestamp
		steps = append(steps, s)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(forecastDocument{List: &steps}); err != nil {
		return "", fmt.Errorf("encode forecast: %w", err)
	}
	return buf.String(), nil
}
