package api

import (
	"encoding/json"
	"net/http"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindUpload:
		return http.StatusBadGateway
	case domain.KindPersistence, domain.KindSubscription:
		return http.StatusServiceUnavailable
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto the error envelope. Only public messages reach the client.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("unhandled error")
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   string(domain.KindInternal),
			Message: "something went wrong, please try again",
		})
		return
	}

	status := statusForKind(de.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("kind", string(de.Kind)).Str("path", r.URL.Path).Msg("request failed")
	}
	respondWithJSON(w, status, errorResponse{Error: string(de.Kind), Message: de.Message, Fields: de.Fields})
}

// respondWithJSON is a helper for writing JSON responses.
func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
