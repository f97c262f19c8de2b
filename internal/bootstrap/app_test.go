package bootstrap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"inspection-backend/internal/shared/config"
)

const testFilesBaseURL = "http://localhost:8080/api/v1/files"

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *App {
	t.Helper()
	cfg := config.Config{
		Env:             "test",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		PublicBaseURL:   testFilesBaseURL,
		CORSAllowOrigin: []string{"http://localhost:3000"},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	app, err := Build(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 7), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := Build(config.Config{Env: "production", ObjectStoreType: "local", LocalStoreDir: t.TempDir()})
	require.Error(t, err)
}

func TestHealthAndCatalog(t *testing.T) {
	app := newTestApp(t)

	code, body := doJSON(t, app.Router, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["ok"])

	code, body = doJSON(t, app.Router, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, code)
	items, ok := body["items"].([]any)
	require.True(t, ok, "catalog body: %v", body)
	require.NotEmpty(t, items)
}

func TestVisitToReportFlow(t *testing.T) {
	app := newTestApp(t)
	r := app.Router

	code, body := doJSON(t, r, http.MethodPost, "/api/v1/visits", map[string]any{
		"siteName":   "Plant 7",
		"address":    "1 Main St",
		"verticals":  []string{"All Sites"},
		"techUserId": "tech-42",
	})
	require.Equal(t, http.StatusOK, code, "create visit: %v", body)
	visitID := body["id"].(string)

	code, body = doJSON(t, r, http.MethodPost, "/api/v1/findings", map[string]any{
		"visitId":   visitID,
		"itemCode":  "AO-ALCU",
		"decision":  "Yes",
		"quantity":  4,
		"unitPrice": 12.5,
		"notes":     "Hot joint on main lug",
	})
	require.Equal(t, http.StatusOK, code, "create finding: %v", body)
	findingID := body["id"].(string)

	code, body = doJSON(t, r, http.MethodPost, "/api/v1/attachments", map[string]any{
		"visitId":    visitID,
		"findingId":  findingID,
		"fileName":   "lug.png",
		"mimeType":   "image/png",
		"dataBase64": pngBase64(t),
		"tags":       []string{"Photo"},
	})
	require.Equal(t, http.StatusOK, code, "upload: %v", body)
	photoURL := body["url"].(string)
	require.True(t, strings.HasPrefix(photoURL, testFilesBaseURL+"/"))

	code, body = doJSON(t, r, http.MethodGet, "/api/v1/pricing/prefill?visitId="+visitID+"&itemCode=AO-ALCU", nil)
	require.Equal(t, http.StatusOK, code, "prefill: %v", body)

	code, body = doJSON(t, r, http.MethodPost, "/api/v1/reports/customer", map[string]any{"visitId": visitID})
	require.Equal(t, http.StatusOK, code, "generate: %v", body)
	reportID := body["id"].(string)
	pdfURL := body["url"].(string)
	require.True(t, strings.HasSuffix(pdfURL, ".pdf"))

	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(pdfURL, "http://localhost:8080"), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	code, body = doJSON(t, r, http.MethodGet, "/api/v1/reports/"+reportID, nil)
	require.Equal(t, http.StatusOK, code, "get report: %v", body)

	code, body = doJSON(t, r, http.MethodGet, "/api/v1/visits/"+visitID+"/reports", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["reports"], 1)
}

func TestGenerateUnknownVisitIs404(t *testing.T) {
	app := newTestApp(t)
	code, body := doJSON(t, app.Router, http.MethodPost, "/api/v1/reports/insurer", map[string]any{
		"visitId": "6f1c2a8e-0000-4000-8000-00000000dead",
	})
	require.Equal(t, http.StatusNotFound, code, "body: %v", body)
}

func TestReportRateLimit(t *testing.T) {
	app := newTestApp(t, func(c *config.Config) { c.ReportRatePerMin = 1 })
	payload := map[string]any{"visitId": "6f1c2a8e-0000-4000-8000-00000000dead"}

	code, _ := doJSON(t, app.Router, http.MethodPost, "/api/v1/reports/customer", payload)
	require.Equal(t, http.StatusNotFound, code)
	code, _ = doJSON(t, app.Router, http.MethodPost, "/api/v1/reports/customer", payload)
	require.Equal(t, http.StatusTooManyRequests, code)

	code, _ = doJSON(t, app.Router, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestFilesRouteMissingKey(t *testing.T) {
	app := newTestApp(t)
	code, _ := doJSON(t, app.Router, http.MethodGet, "/api/v1/files/reports/none.pdf", nil)
	require.Equal(t, http.StatusNotFound, code)
}
