package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stock-data-backend/internal/model"
	"stock-data-backend/internal/stockdata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(cors.Default())
	api := r.Group("/api")
	api.GET("/stock_data/:ticker", GetStockData)
	return r
}

func stubFetch(t *testing.T, fn func(symbol, rng string) ([]model.Bar, error)) {
	t.Helper()
	orig := fetchHistory
	fetchHistory = fn
	t.Cleanup(func() { fetchHistory = orig })
}

func TestGetStockData_Success(t *testing.T) {
	bars := []model.Bar{
		{Date: "2025-01-02", Open: 100.25, High: 102.0, Low: 99.5, Close: 101.5, Volume: 2000},
		{Date: "2025-01-03", Open: 103.5, High: 105.0, Low: 102.75, Close: 104.0, Volume: 3000},
	}
	stubFetch(t, func(symbol, rng string) ([]model.Bar, error) {
		if symbol != "AAPL" {
			t.Errorf("expected symbol AAPL, got %s", symbol)
		}
		if rng != stockdata.RangeOneYear {
			t.Errorf("expected range %s, got %s", stockdata.RangeOneYear, rng)
		}
		return bars, nil
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/stock_data/AAPL", nil)
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 每个对象恰好六个字段
	var objs []map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &objs); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(objs) != len(bars) {
		t.Fatalf("expected %d objects, got %d", len(bars), len(objs))
	}
	dateRe := regexp.MustCompile(`^"\d{4}-\d{2}-\d{2}"$`)
	for i, obj := range objs {
		if len(obj) != 6 {
			t.Errorf("object %d: expected exactly 6 fields, got %d: %v", i, len(obj), obj)
		}
		for _, field := range []string{"date", "open", "high", "low", "close", "volume"} {
			if _, ok := obj[field]; !ok {
				t.Errorf("object %d: missing field %q", i, field)
			}
		}
		if !dateRe.Match(obj["date"]) {
			t.Errorf("object %d: date %s is not plain YYYY-MM-DD", i, obj["date"])
		}
	}

	// 回读应与上游K线完全一致
	var roundTrip []model.Bar
	if err := json.Unmarshal(w.Body.Bytes(), &roundTrip); err != nil {
		t.Fatalf("round-trip decode failed: %v", err)
	}
	for i := range bars {
		if roundTrip[i] != bars[i] {
			t.Errorf("bar %d: expected %+v, got %+v", i, bars[i], roundTrip[i])
		}
	}
}

func TestGetStockData_NotFound(t *testing.T) {
	stubFetch(t, func(symbol, rng string) ([]model.Bar, error) {
		return nil, stockdata.ErrNoData
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/stock_data/INVALIDXYZ", nil)
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	want := `{"error":"No data found for ticker 'INVALIDXYZ'. It might be an invalid ticker or delisted."}`
	if w.Body.String() != want {
		t.Errorf("expected body %s, got %s", want, w.Body.String())
	}
}

func TestGetStockData_UpstreamFailure(t *testing.T) {
	stubFetch(t, func(symbol, rng string) ([]model.Bar, error) {
		return nil, errors.New("connection reset by peer")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/stock_data/TSLA", nil)
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("bad error payload: %v", err)
	}
	if !strings.Contains(payload.Error, "Failed to retrieve data for TSLA") {
		t.Errorf("error message missing ticker: %s", payload.Error)
	}
	if !strings.Contains(payload.Error, "connection reset by peer") {
		t.Errorf("error message missing detail: %s", payload.Error)
	}
}

func TestGetStockData_CORSHeadersOnAllResponses(t *testing.T) {
	stubFetch(t, func(symbol, rng string) ([]model.Bar, error) {
		return nil, stockdata.ErrNoData
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/stock_data/INVALIDXYZ", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	newTestRouter().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected permissive CORS header, got %q", got)
	}
}
