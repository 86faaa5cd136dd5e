package server

import (
	"net/http"
)

func (s *Server) handleListTariffs(w http.ResponseWriter, r *http.Request) {
	// rate tables only change on restart
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, s.tariffs.List())
}
