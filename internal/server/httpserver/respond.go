package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeError(w, http.StatusUnauthorized, detail)
}

// writeServiceError maps a service error onto a status code and message.
// Unknown errors become a bare 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "User already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		writeUnauthorized(w, "Unauthorized")
	case errors.Is(err, common.ErrorInvalidPath):
		writeError(w, http.StatusBadRequest, "Invalid file path.")
	case errors.Is(err, common.ErrorInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid file name.")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "File does not exist or is not a file.")
	case errors.Is(err, common.ErrorPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File size is too large.")
	case errors.Is(err, common.ErrorQuotaExceeded):
		writeError(w, http.StatusBadRequest, "User quota exceeded.")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
