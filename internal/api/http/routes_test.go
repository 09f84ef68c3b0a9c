package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/snowfall-check/internal/geo"
	"github.com/i474232898/snowfall-check/internal/upstream"
	"github.com/i474232898/snowfall-check/internal/weather"
)

type fakeSnowfall struct {
	data      weather.WeeklySnowfallData
	err       error
	lastRange weather.DateRange
	refetched bool
}

func (f *fakeSnowfall) WeeklySnowfall(_ context.Context, _ geo.Coordinates, r weather.DateRange) (weather.WeeklySnowfallData, error) {
	f.lastRange = r
	return f.data, f.err
}

func (f *fakeSnowfall) Refetch(ctx context.Context, c geo.Coordinates, r weather.DateRange) (weather.WeeklySnowfallData, error) {
	f.refetched = true
	return f.WeeklySnowfall(ctx, c, r)
}

func (f *fakeSnowfall) TodaySnowfall(context.Context, geo.Coordinates) (weather.SnowfallSample, error) {
	if f.err != nil {
		return weather.SnowfallSample{}, f.err
	}
	return weather.SnowfallSample{Date: "2024-01-15", SnowfallInches: 1}, nil
}

type fakeSearch struct {
	place geo.Place
	found bool
	err   error
}

func (f fakeSearch) Search(context.Context, string) (geo.Place, bool, error) {
	return f.place, f.found, f.err
}

type fakeReverse struct{}

func (fakeReverse) ReverseGeocode(context.Context, geo.Coordinates) (geo.PlaceName, error) {
	return geo.PlaceName{Name: "Denver", Region: "Colorado", Country: "United States"}, nil
}

type fakeIP struct {
	lastIP string
}

func (f *fakeIP) LocateIP(_ context.Context, ip string) (geo.Fix, error) {
	f.lastIP = ip
	return geo.Fix{Coords: geo.Coordinates{Latitude: 40.015, Longitude: -105.27}, City: "Boulder", Region: "Colorado"}, nil
}

func newTestApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, deps)
	return app
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not JSON: %s", raw)
	}
	return resp.StatusCode, body
}

var weekData = weather.WeeklySnowfallData{
	Days: []weather.SnowfallSample{
		{Date: "2024-01-08", SnowfallInches: 0},
		{Date: "2024-01-09", SnowfallInches: 2.5},
		{Date: "2024-01-14", SnowfallInches: 0.5},
	},
	TotalInches: 3,
}

func TestSnowfallEndpoint(t *testing.T) {
	svc := &fakeSnowfall{data: weekData}
	app := newTestApp(Deps{Snowfall: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snowfall?lat=39.74&lon=-104.99&range=last-week", nil)
	status, body := doJSON(t, app, req)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if svc.lastRange != weather.RangeLastWeek {
		t.Errorf("range = %q", svc.lastRange)
	}
	if body["total"] != "3" || body["unit"] != "inches" || body["dateRange"] != "Jan 8 - Jan 14" {
		t.Errorf("unexpected body %v", body)
	}
	if body["label"] != "Last 7 Days" {
		t.Errorf("label = %v", body["label"])
	}
	days := body["days"].([]any)
	if len(days) != 3 || days[1].(map[string]any)["display"] != `2.5"` {
		t.Errorf("unexpected days %v", days)
	}
}

func TestSnowfallEndpoint_Validation(t *testing.T) {
	app := newTestApp(Deps{Snowfall: &fakeSnowfall{}})

	for _, target := range []string{
		"/api/v1/snowfall",
		"/api/v1/snowfall?lat=39.74",
		"/api/v1/snowfall?lat=91&lon=0",
		"/api/v1/snowfall?lat=abc&lon=0",
		"/api/v1/snowfall?lat=39&lon=-104&range=yesterday",
		"/api/v1/snowfall/today?lon=0",
	} {
		status, _ := doJSON(t, app, httptest.NewRequest(http.MethodGet, target, nil))
		if status != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, status)
		}
	}
}

func TestSnowfallEndpoint_UpstreamFailureIsRetryable(t *testing.T) {
	svc := &fakeSnowfall{err: &upstream.Error{Service: "openmeteo-forecast", StatusCode: 503}}
	app := newTestApp(Deps{Snowfall: svc})

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/snowfall?lat=39&lon=-104", nil))
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d", status)
	}
	if body["retryable"] != true || body["upstreamStatus"] != float64(503) {
		t.Errorf("unexpected body %v", body)
	}

	svc.err = upstream.DataShapeError("openmeteo-forecast", nil)
	status, body = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/snowfall?lat=39&lon=-104", nil))
	if status != http.StatusBadGateway || body["retryable"] != true {
		t.Errorf("data shape: status = %d body = %v", status, body)
	}
}

func TestRefetchAndTodayEndpoints(t *testing.T) {
	svc := &fakeSnowfall{data: weekData}
	app := newTestApp(Deps{Snowfall: svc})

	status, _ := doJSON(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/snowfall/refetch?lat=39&lon=-104&range=next-week", nil))
	if status != http.StatusOK || !svc.refetched || svc.lastRange != weather.RangeNextWeek {
		t.Errorf("refetch: status = %d refetched = %v range = %q", status, svc.refetched, svc.lastRange)
	}

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/snowfall/today?lat=39&lon=-104", nil))
	if status != http.StatusOK {
		t.Fatalf("today: status = %d", status)
	}
	if body["snowfall"] != "1" || body["unit"] != "inch" || body["dateDisplay"] != "Monday, January 15" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestSearchEndpoint(t *testing.T) {
	denver := geo.Place{Name: "Denver", Latitude: 39.74, Longitude: -104.99, Country: "United States", Admin1: "Colorado"}

	tests := []struct {
		name   string
		search fakeSearch
		query  string
		status int
	}{
		{"found", fakeSearch{place: denver, found: true}, "q=Denver,+CO", http.StatusOK},
		{"not found", fakeSearch{}, "q=Xyzzy", http.StatusNotFound},
		{"upstream 500", fakeSearch{err: &upstream.Error{Service: "openmeteo-geocoding", StatusCode: 500}}, "q=Denver", http.StatusBadGateway},
		{"missing query", fakeSearch{}, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(Deps{Search: tt.search})
			status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/locations/search?"+tt.query, nil))
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			if tt.status == http.StatusOK && body["displayName"] != "Denver, Colorado" {
				t.Errorf("displayName = %v", body["displayName"])
			}
		})
	}
}

func TestReverseEndpoint(t *testing.T) {
	app := newTestApp(Deps{Reverse: fakeReverse{}})

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/locations/reverse?lat=39.74&lon=-104.99", nil))
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["displayName"] != "Denver, Colorado" {
		t.Errorf("displayName = %v", body["displayName"])
	}
}

func TestApproximateEndpoint(t *testing.T) {
	ip := &fakeIP{}
	app := newTestApp(Deps{IP: ip})

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/locations/approximate", nil))
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if ip.lastIP != "" {
		t.Errorf("test client address should fall back to self lookup, got %q", ip.lastIP)
	}
	if body["displayName"] != "Boulder, Colorado" || body["note"] == "" {
		t.Errorf("unexpected body %v", body)
	}

	doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/locations/approximate?ip=203.0.113.7", nil))
	if ip.lastIP != "203.0.113.7" {
		t.Errorf("explicit ip not forwarded, got %q", ip.lastIP)
	}

	status, _ = doJSON(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/locations/approximate?ip=nope", nil))
	if status != http.StatusBadRequest {
		t.Errorf("invalid ip: status = %d", status)
	}
}

type resolutionLog struct {
	labels []string
}

func (r *resolutionLog) ObserveResolution(mode, source string) {
	r.labels = append(r.labels, mode+"/"+source)
}

func TestResolveEndpoint(t *testing.T) {
	app := newTestApp(Deps{})

	tests := []struct {
		name          string
		body          string
		status        int
		mode          string
		isApproximate bool
	}{
		{
			name:   "precise wins",
			body:   `{"precise":{"status":"success","coords":{"latitude":39.74,"longitude":-104.99}},"approximate":{"status":"success","coords":{"latitude":39.7,"longitude":-105},"city":"Denver","region":"Colorado"}}`,
			status: http.StatusOK, mode: "have_location",
		},
		{
			name:   "approximate fallback",
			body:   `{"precise":{"status":"error","error":"permission_denied"},"approximate":{"status":"success","coords":{"latitude":39.7,"longitude":-105},"city":"Denver"}}`,
			status: http.StatusOK, mode: "have_location", isApproximate: true,
		},
		{
			name:   "still loading",
			body:   `{"precise":{"status":"loading"},"approximate":{"status":"error"}}`,
			status: http.StatusOK, mode: "loading",
		},
		{
			name:   "forced manual",
			body:   `{"precise":{"status":"success","coords":{"latitude":39.74,"longitude":-104.99}},"forceManualInput":true}`,
			status: http.StatusOK, mode: "need_manual_input",
		},
		{
			name:   "success without coords",
			body:   `{"precise":{"status":"success"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown status",
			body:   `{"precise":{"status":"done"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "not json",
			body:   `{`,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/locations/resolve", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			status, body := doJSON(t, app, req)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			if tt.status != http.StatusOK {
				return
			}
			if body["mode"] != tt.mode {
				t.Errorf("mode = %v, want %s", body["mode"], tt.mode)
			}
			if body["isApproximate"] != tt.isApproximate {
				t.Errorf("isApproximate = %v", body["isApproximate"])
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	status, body := doJSON(t, app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if status != http.StatusInternalServerError || body["error"] != true || body["message"] != "boom" {
		t.Errorf("status = %d body = %v", status, body)
	}
}

func TestResolveEndpoint_ObservesResolutions(t *testing.T) {
	observed := &resolutionLog{}
	app := newTestApp(Deps{Resolutions: observed})

	for _, body := range []string{
		`{"precise":{"status":"error"},"approximate":{"status":"success","coords":{"latitude":39.7,"longitude":-105},"city":"Denver"}}`,
		`{"precise":{"status":"error"},"approximate":{"status":"error"}}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/locations/resolve", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if status, _ := doJSON(t, app, req); status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
	}

	want := []string{"have_location/approximate", "need_manual_input/none"}
	if len(observed.labels) != len(want) {
		t.Fatalf("observed %v, want %v", observed.labels, want)
	}
	for i := range want {
		if observed.labels[i] != want[i] {
			t.Errorf("observation %d = %q, want %q", i, observed.labels[i], want[i])
		}
	}
}
