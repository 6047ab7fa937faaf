package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-forecast/internal/location"
	"github.com/i474232898/weather-forecast/internal/store"
	"github.com/i474232898/weather-forecast/internal/weather"
)

const forecastBody = `{"list":[
{"main":{"temp":12.5},"weather":[{"main":"Clear","description":"晴天","icon":"01d"}],"dt_txt":"2024-05-01 03:00:00"},
{"main":{"temp":14.1},"weather":[{"main":"Clouds","description":"曇りがち","icon":"04d"}],"dt_txt":"2024-05-01 06:00:00"},
{"main":{"temp":9.8},"weather":[{"main":"Rain","description":"小雨","icon":"10n"}],"dt_txt":"2024-05-01 09:00:00"}
]}`

type stubClient struct {
	body  string
	err   error
	block bool
}

func (c stubClient) Fetch(ctx context.Context, _ weather.Query) (string, error) {
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.body, c.err
}

func newTestApp(t *testing.T, client weather.Client) *fiber.App {
	t.Helper()
	device := location.NewDevice(false)
	svc := weather.NewService(client, store.NewMemoryStore(time.Hour), device)

	app := NewApp("weather-forecast-test")
	RegisterRoutes(app, svc, device)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func forecastPath(loc string) string {
	return "/api/v1/forecast?location=" + url.QueryEscape(loc)
}

func TestForecastRequiresLocation(t *testing.T) {
	app := newTestApp(t, stubClient{body: forecastBody})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/forecast", "")
	expectStatus(t, resp, http.StatusBadRequest)

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["error"] != true {
		t.Fatalf("expected error envelope, got %v", body)
	}

	resp = doRequest(t, app, http.MethodGet, forecastPath("   "), "")
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestForecastNamedLocation(t *testing.T) {
	app := newTestApp(t, stubClient{body: forecastBody})

	resp := doRequest(t, app, http.MethodGet, forecastPath("Sapporo"), "")
	expectStatus(t, resp, http.StatusOK)

	var body forecastResponse
	decodeBody(t, resp, &body)
	if body.Location != "Sapporo" || len(body.Entries) != 3 {
		t.Fatalf("unexpected response %+v", body)
	}
	cond := body.Entries[0].Conditions[0]
	if cond.Description != "晴天" || cond.IconURL != "https://openweathermap.org/img/wn/01d@2x.png" {
		t.Fatalf("unexpected condition %+v", cond)
	}
}

func TestForecastErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		client stubClient
		loc    string
		want   int
	}{
		{"current location unavailable", stubClient{body: forecastBody}, weather.CurrentLocation, http.StatusUnprocessableEntity},
		{"upstream failure", stubClient{err: &weather.TransportError{StatusCode: 500, Err: weather.ErrUpstreamStatus}}, "Sapporo", http.StatusBadGateway},
		{"upstream timeout", stubClient{err: &weather.TransportError{Err: context.DeadlineExceeded}}, "Sapporo", http.StatusGatewayTimeout},
		{"malformed body", stubClient{body: `{"list":5}`}, "Sapporo", http.StatusBadGateway},
		{"unknown city", stubClient{err: &weather.TransportError{StatusCode: 404, Err: weather.ErrUpstreamStatus}}, "Sapooro", http.StatusBadGateway},
		{"missing api key", stubClient{err: weather.ErrMissingAPIKey}, "Sapporo", http.StatusServiceUnavailable},
		{"unclassified error", stubClient{err: context.Canceled}, "Sapporo", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, tc.client)
			resp := doRequest(t, app, http.MethodGet, forecastPath(tc.loc), "")
			expectStatus(t, resp, tc.want)
		})
	}
}

func TestCurrentLocationAfterDeviceUpdate(t *testing.T) {
	app := newTestApp(t, stubClient{body: forecastBody})

	resp := doRequest(t, app, http.MethodPut, "/api/v1/device/permission", `{}`)
	expectStatus(t, resp, http.StatusBadRequest)
	resp = doRequest(t, app, http.MethodPut, "/api/v1/device/permission", `{"granted":true}`)
	expectStatus(t, resp, http.StatusNoContent)

	// Permission alone is not enough without a fix.
	resp = doRequest(t, app, http.MethodGet, forecastPath(weather.CurrentLocation), "")
	expectStatus(t, resp, http.StatusUnprocessableEntity)

	resp = doRequest(t, app, http.MethodPut, "/api/v1/device/location", `{"latitude":100,"longitude":141.35}`)
	expectStatus(t, resp, http.StatusBadRequest)
	resp = doRequest(t, app, http.MethodPut, "/api/v1/device/location", `{"latitude":43.06,"longitude":141.35}`)
	expectStatus(t, resp, http.StatusNoContent)

	resp = doRequest(t, app, http.MethodGet, forecastPath(weather.CurrentLocation), "")
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/device", "")
	expectStatus(t, resp, http.StatusOK)
	var device map[string]any
	decodeBody(t, resp, &device)
	if device["permission"] != true || device["fix"] == nil {
		t.Fatalf("unexpected device state %v", device)
	}

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/device/location", "")
	expectStatus(t, resp, http.StatusNoContent)
	resp = doRequest(t, app, http.MethodGet, forecastPath(weather.CurrentLocation), "")
	expectStatus(t, resp, http.StatusUnprocessableEntity)
}

func TestLastAndDailyForecast(t *testing.T) {
	app := newTestApp(t, stubClient{body: forecastBody})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/forecast/last", "")
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/forecast/daily?location=Hakodate", "")
	expectStatus(t, resp, http.StatusOK)
	var daily struct {
		Location string                 `json:"location"`
		Days     []weather.DailySummary `json:"days"`
	}
	decodeBody(t, resp, &daily)
	if daily.Location != "Hakodate" || len(daily.Days) != 1 || daily.Days[0].Steps != 3 {
		t.Fatalf("unexpected daily response %+v", daily)
	}

	resp = doRequest(t, app, http.MethodGet, "/api/v1/forecast/last", "")
	expectStatus(t, resp, http.StatusOK)
	var last forecastResponse
	decodeBody(t, resp, &last)
	if len(last.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(last.Entries))
	}
}

func TestAsyncRequestLifecycle(t *testing.T) {
	app := newTestApp(t, stubClient{body: forecastBody})

	resp := doRequest(t, app, http.MethodPost, "/api/v1/forecast/requests", `{"location":""}`)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, app, http.MethodPost, "/api/v1/forecast/requests", `{"location":"Abashiri"}`)
	expectStatus(t, resp, http.StatusAccepted)
	var created requestView
	decodeBody(t, resp, &created)
	if created.ID == "" || created.Location != "Abashiri" {
		t.Fatalf("unexpected request view %+v", created)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp = doRequest(t, app, http.MethodGet, "/api/v1/forecast/requests/"+created.ID, "")
		expectStatus(t, resp, http.StatusOK)
		var view requestView
		decodeBody(t, resp, &view)
		if view.Status == weather.RequestSucceeded {
			if len(view.Entries) != 3 {
				t.Fatalf("expected 3 entries, got %d", len(view.Entries))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("request did not succeed, last status %s", view.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/forecast/requests/"+created.ID, "")
	expectStatus(t, resp, http.StatusConflict)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/forecast/requests/does-not-exist", "")
	expectStatus(t, resp, http.StatusNotFound)
}

func TestAsyncRequestCancel(t *testing.T) {
	app := newTestApp(t, stubClient{block: true})

	resp := doRequest(t, app, http.MethodPost, "/api/v1/forecast/requests", `{"location":"Wakkanai"}`)
	expectStatus(t, resp, http.StatusAccepted)
	var created requestView
	decodeBody(t, resp, &created)

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/forecast/requests/"+created.ID, "")
	expectStatus(t, resp, http.StatusNoContent)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/forecast/requests/"+created.ID, "")
	expectStatus(t, resp, http.StatusOK)
	var view requestView
	decodeBody(t, resp, &view)
	if view.Status != weather.RequestCancelled {
		t.Fatalf("expected cancelled, got %s", view.Status)
	}

	resp = doRequest(t, app, http.MethodDelete, "/api/v1/forecast/requests/"+created.ID, "")
	expectStatus(t, resp, http.StatusConflict)
}

func TestLocations(t *testing.T) {
	app := newTestApp(t, stubClient{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/locations", "")
	expectStatus(t, resp, http.StatusOK)

	var body struct {
		Presets         []string `json:"presets"`
		CurrentLocation string   `json:"currentLocation"`
	}
	decodeBody(t, resp, &body)
	if len(body.Presets) != len(weather.PresetLocations) || body.CurrentLocation != weather.CurrentLocation {
		t.Fatalf("unexpected locations %+v", body)
	}
}
