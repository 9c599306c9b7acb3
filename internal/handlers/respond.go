package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/markjakearzadon/projectpay-gobackend/internal/gateway"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps service and gateway errors to a status code. Internal
// failures are not described to the caller.
func writeError(w http.ResponseWriter, err error) {
	var cfgErr *gateway.ConfigurationError
	var gwErr *gateway.GatewayError

	switch {
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateOrder), errors.Is(err, services.ErrAlreadyPaid):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "forbidden")
	case errors.As(err, &cfgErr):
		writeMessage(w, http.StatusServiceUnavailable, cfgErr.Error())
	case errors.As(err, &gwErr):
		writeMessage(w, http.StatusBadGateway, gwErr.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
