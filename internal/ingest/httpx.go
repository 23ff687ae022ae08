package ingest

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func newRequestID() string { return "req_" + uuid.NewString() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeError uses the collector's {ok:false,error} shape so clients can
// surface the message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{OK: false, Error: message, RequestID: newRequestID()})
}
