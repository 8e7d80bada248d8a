package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/temperature-monitor/internal/channel"
	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/logging"
	"github.com/i474232898/temperature-monitor/internal/metrics"
	"github.com/i474232898/temperature-monitor/internal/monitor"
	"github.com/i474232898/temperature-monitor/internal/sensor"
	"github.com/i474232898/temperature-monitor/internal/store"
)

func newTestApp(t *testing.T, token string) (*fiber.App, *monitor.Service) {
	t.Helper()
	dir := t.TempDir()

	sensors, err := sensor.Open(filepath.Join(dir, sensor.DefaultFileName), climate.Position{X: 1, Y: 110, Z: 1}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	src := climate.SourceFunc(func(context.Context, climate.Position) (float64, error) { return 12.5, nil })
	st := store.NewDurableStore(dir, "", store.WithLogger(logging.Discard()))
	svc := monitor.New(st, src, climate.DefaultCalendar(), sensors, monitor.WithLogger(logging.Discard()))

	channels := channel.NewServer(channel.WithServerLogger(logging.Discard()))
	if err := channels.Register(channel.DefaultName, channel.SnapshotHandler(svc)); err != nil {
		t.Fatal(err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, Deps{
		Service:    svc,
		Channels:   channels,
		Metrics:    metrics.NewManager(),
		AdminToken: token,
	})
	return app, svc
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, "")

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(body, "tempmon_") {
		t.Errorf("metrics body lacks namespace:\n%s", body)
	}
}

func TestSensorCommandsRequireAdmin(t *testing.T) {
	app, _ := newTestApp(t, "secret")

	resp, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/sensor/spawn", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sensor/spawn", nil)
	req.Header.Set(AdminHeader, "wrong")
	resp, _ = do(t, app, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}

	disabled, _ := newTestApp(t, "")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sensor/spawn", nil)
	req.Header.Set(AdminHeader, "")
	resp, _ = do(t, disabled, req)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("disabled: expected %d, got %d", http.StatusForbidden, resp.StatusCode)
	}
}

func TestSetAndShowLocation(t *testing.T) {
	app, _ := newTestApp(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sensor/location", strings.NewReader(`{"x":10,"y":0,"z":-5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(AdminHeader, "secret")
	resp, body := do(t, app, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, resp.StatusCode, body)
	}

	resp, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/sensor", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var got struct {
		Mode     string           `json:"mode"`
		Position climate.Position `json:"position"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.Mode != "fixed" || got.Position != (climate.Position{X: 10, Y: 0, Z: -5}) {
		t.Errorf("unexpected location %+v", got)
	}
}

func TestSetLocationValidation(t *testing.T) {
	app, _ := newTestApp(t, "secret")

	for _, body := range []string{`{"x":1,"y":2}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sensor/location", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(AdminHeader, "secret")
		resp, _ := do(t, app, req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected %d, got %d", body, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestChannelRoute(t *testing.T) {
	app, svc := newTestApp(t, "")

	resp, body := do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/channels/"+channel.DefaultName, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var got channel.DataResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.Success {
		t.Fatalf("no data persisted yet, got %+v", got)
	}

	if err := svc.SampleAt(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	_, body = do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/channels/"+channel.DefaultName, nil))
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || !strings.Contains(got.Document, "12.5") {
		t.Errorf("unexpected response %+v", got)
	}

	resp, body = do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/channels/other", nil))
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body, "channel unavailable") {
		t.Errorf("unknown channel: status %d body %s", resp.StatusCode, body)
	}
}
