package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/moodworks/moodboard/pkg/moodboard"
	"github.com/moodworks/moodboard/pkg/moodboard/annotate"
	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
)

// canned adapters: label by text prefix so filters have something to
// bite on.
type prefixAdapter struct {
	prefix string
	labels []string
	other  []string
}

func (a prefixAdapter) Predict(texts []string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i, text := range texts {
		if strings.HasPrefix(text, a.prefix) {
			out[i] = a.labels
		} else {
			out[i] = a.other
		}
	}
	return out, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := newServiceFromRows(t, []corpus.Row{
		{Text: "angry rant", Origin: "Reddit"},
		{Text: "calm note", Origin: "Reddit"},
		{Text: "angry reply", Origin: "Telegram"},
	})
	return NewRouter(svc, logger)
}

// newServiceFromRows builds a Service over fixed rows by fronting them
// with a single-source corpus already materialized in a cache store.
func newServiceFromRows(t *testing.T, rows []corpus.Row) *moodboard.Service {
	t.Helper()
	return moodboard.NewFromRows(rows, annotate.Classifiers{
		Toxicity:  prefixAdapter{prefix: "angry", labels: []string{"toxic"}},
		Subject:   prefixAdapter{prefix: "angry", labels: []string{"talk.politics.misc"}, other: []string{"sci.med"}},
		Sentiment: prefixAdapter{prefix: "angry", labels: []string{"negative"}, other: []string{"neutral"}},
	})
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var doc struct {
		Schema struct {
			PrimaryKey []string `json:"primaryKey"`
		} `json:"schema"`
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Data) != 3 {
		t.Fatalf("got %d groups, want 3: %v", len(doc.Data), doc.Data)
	}
	if len(doc.Schema.PrimaryKey) != 2 {
		t.Errorf("primaryKey = %v", doc.Schema.PrimaryKey)
	}
}

func TestQueryWithPathExpression(t *testing.T) {
	router := testRouter(t)

	expr := url.PathEscape(`origin == "Telegram"`)
	rec := get(t, router, "/query/"+expr)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var doc struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Data) != 1 || doc.Data[0]["origin"] != "Telegram" {
		t.Fatalf("data = %v", doc.Data)
	}
}

func TestQueryWithQueryParam(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/?query="+url.QueryEscape("toxic and negative"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var doc struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.Data) != 2 {
		t.Fatalf("got %d groups, want 2 (one per origin): %v", len(doc.Data), doc.Data)
	}
}

func TestBadFilterReturns400(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/query/"+url.PathEscape(`origin == `))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("400 body carries no error message")
	}

	// Unknown column is also a client error.
	rec = get(t, router, "/query/"+url.PathEscape(`bogus == "x"`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCSVFormat(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/?format=csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d csv lines, want header + 3 rows:\n%s", len(lines), rec.Body.String())
	}
	if !strings.HasPrefix(lines[0], "origin,subject,count,toxic") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestCORSHeaders(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/health")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header on response")
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	pre := httptest.NewRecorder()
	router.ServeHTTP(pre, req)
	if pre.Code != 204 {
		t.Errorf("preflight status = %d, want 204", pre.Code)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	router := testRouter(t)

	rec := get(t, router, "/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response carries no request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	echo := httptest.NewRecorder()
	router.ServeHTTP(echo, req)
	if echo.Header().Get("X-Request-ID") != "fixed-id" {
		t.Error("supplied request ID not echoed back")
	}
}
