package cachereport

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

// StoreReport is the HTTP representation of one store's counters.
type StoreReport struct {
	cache.Stats

	RequestCount    int64         `json:"request_count"`
	HitRate         float64       `json:"hit_rate"`
	MissRate        float64       `json:"miss_rate"`
	AverageLoadTime time.Duration `json:"average_load_time_ns"`
}

func newStoreReport(s cache.Stats) StoreReport {
	return StoreReport{
		Stats:           s,
		RequestCount:    s.RequestCount(),
		HitRate:         s.HitRate(),
		MissRate:        s.MissRate(),
		AverageLoadTime: s.AverageLoadTime(),
	}
}

// Handler serves the current counters of src:
//
//	GET /        every store
//	GET /{name}  one store, 404 if unknown
//
// Responses are JSON when requested via ?format=json or the Accept header,
// plain text otherwise.
//
//	r.Mount("/debug/cache", cachereport.Handler(registry))
func Handler(src Source) http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		snap := src.Snapshot()

		if wantsJSON(r) {
			out := make(map[string]StoreReport, len(snap))
			for name, s := range snap {
				out[name] = newStoreReport(s)
			}
			writeJSON(w, http.StatusOK, out)
			return
		}

		var b strings.Builder
		for _, name := range slices.Sorted(maps.Keys(snap)) {
			b.WriteString("[" + name + "]\n")
			b.WriteString(snap[name].String())
		}
		writeText(w, http.StatusOK, b.String())
	})

	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		s, ok := src.Snapshot()[name]
		if !ok {
			if wantsJSON(r) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown cache " + name})
				return
			}
			writeText(w, http.StatusNotFound, "Not Found")
			return
		}

		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, newStoreReport(s))
			return
		}
		writeText(w, http.StatusOK, s.String())
	})

	return r
}

// wantsJSON checks if the client wants JSON response.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
