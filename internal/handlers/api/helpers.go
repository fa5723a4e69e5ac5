package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the generic shape of API error bodies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSONResponse writes data as a JSON body with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent at this point, nothing left to do.
			return
		}
	}
}

// writeJSONError sends a JSON error response.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}
