package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/rickgao/gift-heatmap/internal/auth"
	"github.com/rickgao/gift-heatmap/internal/delivery"
	"github.com/rickgao/gift-heatmap/internal/export"
	"github.com/rickgao/gift-heatmap/internal/model"
	"github.com/rickgao/gift-heatmap/internal/report"
)

const botToken = "123:test"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRecords []model.GiftMarketRecord

func (f fakeRecords) Records() []model.GiftMarketRecord { return f }

func (f fakeRecords) Reference() map[string]model.GiftMarketRecord { return nil }

type fakeExporter struct {
	lastReq    export.Request
	lastW      int
	lastH      int
	job        *model.ExportJob
	err        error
	previewErr error
}

func (f *fakeExporter) Export(_ context.Context, req export.Request) (*model.ExportJob, error) {
	f.lastReq = req
	return f.job, f.err
}

func (f *fakeExporter) Preview(_ context.Context, req export.Request, w, h int) ([]byte, error) {
	f.lastReq, f.lastW, f.lastH = req, w, h
	return []byte("\x89PNG"), f.previewErr
}

func (f *fakeExporter) State() model.ExportState { return model.ExportIdle }

type fakeRelay struct {
	got delivery.SendRequest
	err error
}

func (f *fakeRelay) Relay(_ context.Context, req delivery.SendRequest) error {
	f.got = req
	return f.err
}

func testRecords() fakeRecords {
	prev := 10.0
	return fakeRecords{
		{Name: "Plush Pepe", Image: "plushpepe", PriceTon: 12, TonPrice24hAgo: &prev, MarketCapTon: "1M"},
		{Name: "Durov's Cap", Image: "durovscap", PriceTon: 9, TonPrice24hAgo: &prev, MarketCapTon: "2M"},
		{Name: "[Regular] Plush Pepe", Image: "plushpepe", PriceTon: 1, MarketCapTon: "1K"},
		{Name: "Presale", PriceTon: 1, PreSale: true},
	}
}

func newTestRouter(t *testing.T, exp *fakeExporter, opts ...Option) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	h := NewHandler(Config{OutputDir: dir}, testRecords(), exp, opts...)
	return NewRouter(h), dir
}

func do(r http.Handler, method, target string, body []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, &fakeExporter{})
	w := do(r, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["status"] != "ok" || body["records"] != float64(4) {
		t.Errorf("body = %v", body)
	}
}

func TestPreview(t *testing.T) {
	exp := &fakeExporter{}
	r, _ := newTestRouter(t, exp)

	w := do(r, http.MethodGet, "/api/v1/heatmap?chartType=capitalization&source=market&top=25", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if exp.lastW != 1200 || exp.lastH != 675 {
		t.Errorf("preview size = %dx%d, want default 1200x675", exp.lastW, exp.lastH)
	}
	names := make([]string, len(exp.lastReq.Records))
	for i, rec := range exp.lastReq.Records {
		names[i] = rec.Name
	}
	if strings.Join(names, ",") != "Durov's Cap,Plush Pepe" {
		t.Errorf("records = %v, want market gifts by market cap", names)
	}
	if exp.lastReq.Options.ChartType != model.ChartCapitalization {
		t.Errorf("ChartType = %v", exp.lastReq.Options.ChartType)
	}
	if exp.lastReq.Host != nil {
		t.Error("preview should not carry a host")
	}
}

func TestPreviewBadRequests(t *testing.T) {
	r, _ := newTestRouter(t, &fakeExporter{})
	for _, target := range []string{
		"/api/v1/heatmap?chartType=pie",
		"/api/v1/heatmap?timeGap=1y",
		"/api/v1/heatmap?top=10",
		"/api/v1/heatmap?width=8000&height=100",
		"/api/v1/heatmap?width=abc",
	} {
		if w := do(r, http.MethodGet, target, nil, nil); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, w.Code)
		}
	}
}

func TestExportStandalone(t *testing.T) {
	exp := &fakeExporter{job: &model.ExportJob{
		ID:       uuid.New(),
		State:    model.ExportSucceeded,
		Platform: model.PlatformStandalone,
		Delivery: model.DeliveryLocalDownload,
		Artifact: "/data/exports/heatmap-1700000000000.jpeg",
	}}
	r, _ := newTestRouter(t, exp)

	w := do(r, http.MethodPost, "/api/v1/heatmap/export?timeGap=1w", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["download"] != "/api/v1/exports/heatmap-1700000000000.jpeg" {
		t.Errorf("download = %v", body["download"])
	}
	if body["state"] != model.ExportSucceeded.String() {
		t.Errorf("state = %v", body["state"])
	}
	if exp.lastReq.Host != nil {
		t.Error("standalone export should not carry a host")
	}
	if exp.lastReq.Options.TimeGap != model.TimeGapWeek {
		t.Errorf("TimeGap = %v, want 1w", exp.lastReq.Options.TimeGap)
	}
}

func TestExportEmbedded(t *testing.T) {
	exp := &fakeExporter{job: &model.ExportJob{ID: uuid.New(), State: model.ExportSucceeded}}
	r, _ := newTestRouter(t, exp, WithVerifier(auth.NewVerifier(botToken, time.Hour)))

	v := url.Values{}
	v.Set("user", `{"id":4242}`)
	header := http.Header{InitDataHeader: {auth.Sign(botToken, v, time.Now())}}

	w := do(r, http.MethodPost, "/api/v1/heatmap/export", nil, header)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	id, ok := exp.lastReq.Host.UserID()
	if !ok || id != "4242" {
		t.Errorf("host user = %q, %v, want 4242", id, ok)
	}

	header = http.Header{InitDataHeader: {"user=%7B%22id%22%3A1%7D&hash=00"}}
	if w := do(r, http.MethodPost, "/api/v1/heatmap/export", nil, header); w.Code != http.StatusUnauthorized {
		t.Errorf("forged init data status = %d, want 401", w.Code)
	}
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name string
		job  *model.ExportJob
		err  error
		want int
	}{
		{name: "busy", err: export.ErrExportInProgress, want: http.StatusConflict},
		{name: "failed", job: &model.ExportJob{ID: uuid.New(), State: model.ExportFailedTerminal}, err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeExporter{job: tt.job, err: tt.err})
			if w := do(r, http.MethodPost, "/api/v1/heatmap/export", nil, nil); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestItems(t *testing.T) {
	r, _ := newTestRouter(t, &fakeExporter{})
	w := do(r, http.MethodGet, "/api/v1/heatmap/items.xlsx?source=all", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("len(rows) = %d, want header + 3 gifts", len(rows))
	}
}

func TestArtifact(t *testing.T) {
	r, dir := newTestRouter(t, &fakeExporter{})
	if err := os.WriteFile(filepath.Join(dir, "heatmap-42.jpeg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := do(r, http.MethodGet, "/api/v1/exports/heatmap-42.jpeg", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "jpeg" {
		t.Errorf("status = %d, body = %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "heatmap-42.jpeg") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	for _, name := range []string{"heatmap-43.jpeg", "secret.txt", "heatmap-1.png"} {
		if w := do(r, http.MethodGet, "/api/v1/exports/"+name, nil, nil); w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", name, w.Code)
		}
	}
}

func TestSendImage(t *testing.T) {
	relay := &fakeRelay{}
	r, _ := newTestRouter(t, &fakeExporter{}, WithRelay(relay))

	w := do(r, http.MethodPost, "/api/send-image", []byte(`{"id":"7","image":"eA=="}`), http.Header{"Content-Type": {"application/json"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if relay.got.ID != "7" || relay.got.Image != "eA==" {
		t.Errorf("relayed = %+v", relay.got)
	}

	if w := do(r, http.MethodPost, "/api/send-image", []byte(`{"id":"7"}`), nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing image status = %d, want 400", w.Code)
	}

	relay.err = errors.New("telegram down")
	if w := do(r, http.MethodPost, "/api/send-image", []byte(`{"id":"7","image":"eA=="}`), nil); w.Code != http.StatusInternalServerError {
		t.Errorf("relay failure status = %d, want 500", w.Code)
	}
}

func TestSendImageDisabled(t *testing.T) {
	r, _ := newTestRouter(t, &fakeExporter{})
	if w := do(r, http.MethodPost, "/api/send-image", []byte(`{"id":"7","image":"eA=="}`), nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
