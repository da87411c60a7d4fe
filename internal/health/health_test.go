package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestHandler(t *testing.T) {
	h := NewHandler("1.0.0")
	h.SetStats(func() (int, int) { return 4, 2 })
	h.RegisterCheck("dedust", func(context.Context) (bool, string) { return true, "closed" })

	healthyStonfi := true
	h.RegisterCheck("stonfi", func(context.Context) (bool, string) {
		if healthyStonfi {
			return true, "closed"
		}
		return false, "open"
	})

	r := mux.NewRouter()
	h.Mount(r)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("health ok", func(t *testing.T) {
		rec := get("/health")
		var s Status
		if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
			t.Fatal(err)
		}
		if s.Status != "ok" || s.WSClients != 4 || s.Subscriptions != 2 || len(s.Checks) != 2 {
			t.Errorf("status = %+v", s)
		}
		if get("/ready").Code != http.StatusOK {
			t.Error("ready should be 200")
		}
	})

	t.Run("degraded", func(t *testing.T) {
		healthyStonfi = false
		defer func() { healthyStonfi = true }()

		rec := get("/health")
		var s Status
		json.NewDecoder(rec.Body).Decode(&s)
		if rec.Code != http.StatusOK || s.Status != "degraded" || s.Checks["stonfi"].Healthy {
			t.Errorf("code = %d, status = %+v", rec.Code, s)
		}
		if get("/ready").Code != http.StatusServiceUnavailable {
			t.Error("ready should be 503 while degraded")
		}
	})

	t.Run("live", func(t *testing.T) {
		if rec := get("/live"); rec.Code != http.StatusOK || rec.Body.String() != "alive" {
			t.Errorf("live = %d %q", rec.Code, rec.Body.String())
		}
	})
}
