package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsebench/parsebench-go/internal/api"
	"github.com/parsebench/parsebench-go/internal/domain"
	"github.com/parsebench/parsebench-go/internal/observability"
	"github.com/parsebench/parsebench-go/internal/ratelimit"
	"github.com/parsebench/parsebench-go/internal/results"
)

type failingStore struct{ results.Store }

func (failingStore) ListSummaries(context.Context) ([]domain.Summary, error) {
	return nil, errors.New("database unavailable")
}

func (failingStore) LoadSummary(context.Context, string, string) (domain.Summary, error) {
	return domain.Summary{}, errors.New("database unavailable")
}

func newTestServer(t *testing.T, store results.Store, opts ...api.Option) *httptest.Server {
	t.Helper()
	opts = append([]api.Option{api.WithLogger(observability.Discard())}, opts...)
	srv, err := api.New(context.Background(), store, []string{"*"}, api.OIDCConfig{}, opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func seededStore(t *testing.T) *results.FileStore {
	t.Helper()
	fs := results.NewFileStore(t.TempDir())
	for _, s := range []domain.Summary{
		{BackendName: "goquery", DocumentType: "html", Total: 3, Succeeded: 3, Errors: []string{}},
		{BackendName: "htmlquery", DocumentType: "html", Total: 3, Succeeded: 2, Failed: 1, Errors: []string{"broken/a.html: timeout"}},
		{BackendName: "goquery", DocumentType: "xml", Total: 1, Succeeded: 1, Errors: []string{}},
	} {
		require.NoError(t, fs.SaveSummary(context.Background(), s))
	}
	return fs
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()))

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestListResults(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	resp, err := http.Get(ts.URL + "/api/v1/results")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var sums []domain.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sums))
	assert.Len(t, sums, 3)
}

func TestListResults_FilterByType(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	resp, err := http.Get(ts.URL + "/api/v1/results?document_type=xml")
	require.NoError(t, err)
	defer resp.Body.Close()

	var sums []domain.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sums))
	require.Len(t, sums, 1)
	assert.Equal(t, "xml", sums[0].DocumentType)
}

func TestListResults_Error(t *testing.T) {
	ts := newTestServer(t, failingStore{})

	resp, err := http.Get(ts.URL + "/api/v1/results")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetResult(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	resp, err := http.Get(ts.URL + "/api/v1/results/htmlquery/html")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var sum domain.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, []string{"broken/a.html: timeout"}, sum.Errors)
}

func TestGetResult_NotFoundAndBadType(t *testing.T) {
	ts := newTestServer(t, seededStore(t))

	resp, err := http.Get(ts.URL + "/api/v1/results/htmlquery/xml")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/results/goquery/pdf")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvaluate_DefaultTolerances(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()))

	resp := postJSON(t, ts.URL+"/api/v1/evaluate", `{
		"document_id": "doc-1",
		"features_a": {"title_length": 40, "meta_description_length": 150, "og_tag_count": 3, "link_count": 20, "image_count": 5, "text_length": 10000},
		"features_b": {"title_length": 42, "meta_description_length": 150, "og_tag_count": 3, "link_count": 21, "image_count": 5, "text_length": 11000}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var v domain.Verdict
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "doc-1", v.DocumentID)
	assert.True(t, v.Equivalent)
	assert.Equal(t, 2, v.FieldDiffs[domain.FieldTitleLength].AbsoluteDifference)
	assert.Equal(t, []domain.Field{domain.FieldImageCount, domain.FieldLinkCount}, v.UncheckedFields)
}

func TestEvaluate_CustomAndEmptyTolerances(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()))

	resp := postJSON(t, ts.URL+"/api/v1/evaluate", `{
		"document_id": "doc-1",
		"features_a": {"title_length": 40},
		"features_b": {"title_length": 42},
		"tolerances": {"title_length": 1}
	}`)
	var v domain.Verdict
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.False(t, v.Equivalent)

	resp = postJSON(t, ts.URL+"/api/v1/evaluate", `{
		"document_id": "doc-1",
		"features_a": {"title_length": 40},
		"features_b": {"title_length": 400},
		"tolerances": {}
	}`)
	v = domain.Verdict{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.True(t, v.Equivalent, "an empty table checks nothing")
	assert.Empty(t, v.FieldDiffs)
}

func TestEvaluate_Errors(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed json", `{"document_id":`, http.StatusBadRequest},
		{"unknown field", `{"document_id": "d", "feature_a": {}}`, http.StatusBadRequest},
		{"missing document id", `{"features_a": {}, "features_b": {}}`, http.StatusBadRequest},
		{"negative tolerance", `{"document_id": "d", "tolerances": {"title_length": -1}}`, http.StatusBadRequest},
		{"unknown tolerance field", `{"document_id": "d", "tolerances": {"word_count": 1}}`, http.StatusBadRequest},
		{"negative feature", `{"document_id": "d", "features_a": {"link_count": -2}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/v1/evaluate", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestEvaluate_Budget(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()),
		api.WithBudget(ratelimit.NewBudget(2, time.Minute)))

	body := `{"document_id": "d"}`
	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/v1/evaluate", body).StatusCode)
	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/v1/evaluate", body).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(t, ts.URL+"/api/v1/evaluate", body).StatusCode)

	// Reads are not budgeted.
	resp, err := http.Get(ts.URL + "/api/v1/results")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()))

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, err := http.NewRequest("GET", ts.URL+"/api/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "abc123", resp2.Header.Get("X-Request-ID"))
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t, results.NewFileStore(t.TempDir()))

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/evaluate", nil)
	require.NoError(t, err)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)
}
