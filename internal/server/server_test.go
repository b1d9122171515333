package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matsen/bix/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "EID,Year,Cited by,Document Type,Funding Details\n" +
	"e1,2014,10,Article,NSF\n" +
	"e2,2016,8,Review,\n" +
	"e3,2016,5,Article,\n" +
	"e4,2018,4,Article,\n" +
	"e5,2020,3,Conference Paper,\n" +
	"e6,,7,Article,\n"

func multipartBody(t *testing.T, filename, content, year string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if year != "" {
		require.NoError(t, w.WriteField("year", year))
	}
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newTestServer() *Server {
	return New(Options{ReferenceYear: 2024, Registry: prometheus.NewRegistry()})
}

func TestIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/report"`)
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAPIReport_Multipart(t *testing.T) {
	body, ct := multipartBody(t, "scopus.csv", sampleCSV, "")
	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Report.Publications)
	assert.Equal(t, 4, resp.Report.HIndex)
	assert.Equal(t, 5, resp.Report.GIndex)
	assert.Equal(t, 1, resp.Report.Funded)
	assert.InDelta(t, 0.4, resp.Report.MIndex, 1e-12)
	assert.Len(t, resp.Dropped, 1)
	assert.Equal(t, "Quantity of Publications", resp.Entries[0].Key)
}

func TestAPIReport_RawBodyWithYear(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/report?year=2034", strings.NewReader(sampleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2034, resp.Report.CurrentYear)
	assert.InDelta(t, 0.2, resp.Report.MIndex, 1e-12)
}

func TestAPIReport_ZeroYearUsesDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/report?year=0", strings.NewReader(sampleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2024, resp.Report.CurrentYear)
	assert.InDelta(t, 0.4, resp.Report.MIndex, 1e-12)
}

func TestAPIReport_RateLimited(t *testing.T) {
	s := New(Options{
		ReferenceYear: 2024,
		Registry:      prometheus.NewRegistry(),
		RateLimit:     config.RateLimit{RequestsPerMinute: 1, Burst: 2},
	})

	post := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/report", strings.NewReader(sampleCSV))
		req.Header.Set("Content-Type", "text/csv")
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := post("192.0.2.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := post("192.0.2.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "rate limit")

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusOK, post("198.51.100.7:1234").Code)

	// Health checks are never limited.
	health := httptest.NewRecorder()
	s.Handler().ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code)

	metrics := httptest.NewRecorder()
	s.Handler().ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), `bix_reports_total{outcome="limited"} 1`)
}

func TestAPIReport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		year     string
		status   int
	}{
		{name: "missing columns", filename: "a.csv", content: "EID,Year\ne1,2019\n", status: http.StatusUnprocessableEntity},
		{name: "empty file", filename: "a.csv", content: "", status: http.StatusUnprocessableEntity},
		{name: "duplicate EID", filename: "a.csv", content: "EID,Year,Cited by,Document Type,Funding Details\ne1,2019,1,A,\ne1,2019,2,A,\n", status: http.StatusUnprocessableEntity},
		{name: "not a csv", filename: "a.xlsx", content: sampleCSV, status: http.StatusUnsupportedMediaType},
		{name: "bad year", filename: "a.csv", content: sampleCSV, year: "next", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.content, tt.year)
			req := httptest.NewRequest(http.MethodPost, "/api/report", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			newTestServer().Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHTMLReport(t *testing.T) {
	body, ct := multipartBody(t, "scopus.csv", sampleCSV, "2024")
	req := httptest.NewRequest(http.MethodPost, "/report", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "<th>h index</th>")
	assert.Contains(t, html, "Source: scopus.csv")
	assert.Contains(t, html, "1 rows")
}

func TestHTMLReport_ErrorRendersForm(t *testing.T) {
	body, ct := multipartBody(t, "scopus.csv", "EID\n", "")
	req := httptest.NewRequest(http.MethodPost, "/report", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required columns")
	assert.Contains(t, rec.Body.String(), `action="/report"`)
}

func TestMetrics(t *testing.T) {
	s := newTestServer()

	body, ct := multipartBody(t, "scopus.csv", sampleCSV, "")
	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", ct)
	s.Handler().ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bix_reports_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "bix_dropped_rows_total 1")
}
