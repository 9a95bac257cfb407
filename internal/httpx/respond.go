package httpx

import (
	"encoding/json"
	"log"
	"net/http"
)

func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// RespondError maps an error to its HTTP shape. Unexpected errors are logged
// and hidden behind a generic 500.
func RespondError(w http.ResponseWriter, err error) {
	if appErr := AsError(err); appErr != nil {
		Respond(w, appErr.Status, appErr)
		return
	}
	log.Printf("internal error: %v", err)
	Respond(w, http.StatusInternalServerError, &Error{
		Code:    "INTERNAL",
		Message: "an unexpected error occurred",
	})
}

// DecodeJSON decodes a request body, returning a ValidationError on failure.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return Validation("INVALID_BODY", "request body is not valid JSON")
	}
	return nil
}
