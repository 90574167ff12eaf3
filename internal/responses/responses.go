package responses

import (
	"encoding/json"
	"net/http"

	"student-connect/internal/utils"
)

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationError is one entry of a 422 body, in the shape the client
// already understands from the production API.
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type ValidationErrorResponse struct {
	Detail []ValidationError `json:"detail"`
}

func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendJSON(w, statusCode, ErrorResponse{Detail: message})
}

func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func SendMessage(w http.ResponseWriter, message string) {
	SendJSON(w, http.StatusOK, map[string]string{"message": message})
}

func SendValidationError(w http.ResponseWriter, errs []utils.FieldError) {
	detail := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		detail = append(detail, ValidationError{
			Loc:  []string{"body", e.Field},
			Msg:  e.Message,
			Type: "value_error",
		})
	}
	SendJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Detail: detail})
}
