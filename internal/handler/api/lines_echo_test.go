package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "AstroCarto/internal/domain/models"
	"AstroCarto/internal/services/geometry"
	xlogger "AstroCarto/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeComputer struct {
	calls int
	last  models.CalcRequest
}

func (f *fakeComputer) ComputeLines(_ context.Context, req models.CalcRequest) (*models.CalculationResult, error) {
	f.calls++
	f.last = req
	return &models.CalculationResult{
		Fingerprint: "deadbeef",
		JD:          req.JD,
		Features: []models.LineFeature{
			{
				Body:     models.Sun,
				Kind:     models.LineRising,
				Angle:    models.AngleRising,
				Segments: [][]models.Point{{{Lon: 10, Lat: -60}, {Lon: 12, Lat: 0}, {Lon: 14, Lat: 60}}},
				Meta:     models.LineMeta{Method: models.MethodNumerical, Motion: models.MotionDirect, Style: "solid"},
			},
		},
		Parans: []models.ParanEvent{
			{
				BodyA: models.Sun, BodyB: models.Moon,
				AngleA: models.AngleCulminating, AngleB: models.AngleRising,
				Latitude: 78.49, Validity: models.ParanOK,
				Method: models.MethodClosedForm,
			},
		},
		ComputedAt: time.Now().UTC(),
		DurationMS: 3,
	}, nil
}

func testHandler(t *testing.T) (*LinesHandler, *fakeComputer) {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	fc := &fakeComputer{}
	defaults := Defaults{StepDeg: 1, PrecisionDeg: 0.03, OrbDeg: 1, StationaryThreshold: 0.01}
	return NewLinesHandler(l, fc, geometry.NewAssembler(), nil, defaults), fc
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestLinesEndpoint(t *testing.T) {
	h, fc := testHandler(t)
	e := echo.New()

	body := `{"bodies":["sun","moon"],"jd":2451545.0}`
	req := httptest.NewRequest(http.MethodPost, "/api/lines", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Lines(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, body %s", env.Status, rec.Body.String())
	}
	if fc.calls != 1 {
		t.Fatalf("computer calls = %d, want 1", fc.calls)
	}
	if fc.last.JD != 2451545.0 {
		t.Errorf("jd = %v", fc.last.JD)
	}
	// DTO defaults must have been applied before conversion
	if fc.last.Options.StepDeg != 1.0 || fc.last.Options.PrecisionDeg != 0.03 {
		t.Errorf("options not defaulted: %+v", fc.last.Options)
	}

	var resp ComputeLinesResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.Fingerprint != "deadbeef" {
		t.Errorf("fingerprint = %q", resp.Fingerprint)
	}
	if resp.GeoJSON.Type != "FeatureCollection" {
		t.Errorf("geojson type = %q", resp.GeoJSON.Type)
	}
	// one line feature plus one paran latitude line
	if len(resp.GeoJSON.Features) != 2 {
		t.Errorf("geojson features = %d, want 2", len(resp.GeoJSON.Features))
	}
	if len(resp.Parans) != 1 {
		t.Errorf("parans = %d, want 1", len(resp.Parans))
	}
}

func TestLinesEndpointRejectsMissingBodies(t *testing.T) {
	h, fc := testHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/lines", strings.NewReader(`{"jd":2451545.0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Lines(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if env := decodeEnvelope(t, rec); env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
	if fc.calls != 0 {
		t.Fatalf("computer called on invalid request")
	}
}

func TestLinesEndpointRejectsUnknownBody(t *testing.T) {
	h, _ := testHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/lines", strings.NewReader(`{"bodies":["vulcan"],"jd":2451545.0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Lines(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if env := decodeEnvelope(t, rec); env.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", env.Status)
	}
}

func TestParansEndpoint(t *testing.T) {
	h, fc := testHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/parans?body_a=sun&body_b=moon&angle_a=culminating&angle_b=rising&jd=2451545.0", nil)
	rec := httptest.NewRecorder()

	if err := h.Parans(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("status = %d, body %s", env.Status, rec.Body.String())
	}
	if len(fc.last.Options.Pairs) != 1 {
		t.Fatalf("pairs = %+v", fc.last.Options.Pairs)
	}
	p := fc.last.Options.Pairs[0]
	if p.BodyA != models.Sun || p.AngleA != models.AngleCulminating {
		t.Errorf("pair = %+v", p)
	}
	if fc.last.Options.WantsKind(models.LineRising) {
		t.Errorf("paran-only request should not want primary kinds")
	}
}

func TestRunsEndpointWithoutArchive(t *testing.T) {
	h, _ := testHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()

	if err := h.Runs(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if env := decodeEnvelope(t, rec); env.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", env.Status)
	}
}
