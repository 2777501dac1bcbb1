package stats

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"
)

// Handler serves text and JSON statistics.
func (s *Stats) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, s.AsString())
	}).Methods(http.MethodGet)
	r.HandleFunc("/stats.json", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, 0)
	}).Methods(http.MethodGet)
	r.HandleFunc("/stats/dc/{dc:[0-9]+}", func(w http.ResponseWriter, req *http.Request) {
		dc, err := strconv.Atoi(mux.Vars(req)["dc"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.writeJSON(w, dc)
	}).Methods(http.MethodGet)
	return r
}

func (s *Stats) writeJSON(w http.ResponseWriter, dc int) {
	var e jx.Encoder
	s.EncodeJSON(&e, dc)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.Bytes())
}
