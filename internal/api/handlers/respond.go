package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/transcript-triage/backend/pkg/errors"
)

const (
	headerActorID    = "X-Actor-Id"
	headerActorEmail = "X-Actor-Email"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, code string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": code,
	})
}

// respondWithAppError maps service errors onto status codes and wire codes
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unclassified error")
		respondWithError(w, http.StatusInternalServerError, apperrors.CodeStorage)
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, apperrors.CodeNotFound)
	case apperrors.ErrorTypeExternal:
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("text generation backend unavailable")
		respondWithError(w, http.StatusBadGateway, apperrors.CodeBackendUnavailable)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("store operation failed")
		respondWithError(w, http.StatusInternalServerError, apperrors.CodeStorage)
	}
}

// actorFromRequest reads the caller identity forwarded by the gateway
func actorFromRequest(r *http.Request) entities.Actor {
	id := strings.TrimSpace(r.Header.Get(headerActorID))
	if id == "" {
		return entities.SystemActor("")
	}

	display := strings.TrimSpace(r.Header.Get(headerActorEmail))
	if display == "" {
		display = id
	}
	return entities.Actor{Type: entities.ActorTypeUser, ID: id, Display: display}
}

// queryInt returns the integer query value, or 0 when absent or malformed
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

// decodeBody decodes a JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	return err == nil || errors.Is(err, io.EOF)
}
