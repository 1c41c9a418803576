package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Lukasz11111/triominos/internal/auth"
	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/google/uuid"
)

const authCookie = "auth_token"

// requestToken finds the operator token in the auth_token cookie, a Bearer header or the
// token query parameter, in that order.
func requestToken(r *http.Request) string {
	if c, err := r.Cookie(authCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// writeErr reports an engine or auth error with its mapped code.
func writeErr(w http.ResponseWriter, status int, err error) {
	writeError(w, status, errorCode(err), err.Error())
}

// errorCode maps engine errors onto stable codes the client can switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownAction):
		return "unknown_action"
	case errors.Is(err, game.ErrInvalidNumber):
		return "invalid_number"
	case errors.Is(err, game.ErrInvalidTile):
		return "invalid_tile"
	case errors.Is(err, game.ErrInvalidPlayerCount), errors.Is(err, game.ErrEmptyPlayerName),
		errors.Is(err, game.ErrInvalidRules), errors.Is(err, auth.ErrEmptyPIN):
		return "invalid_setup"
	case errors.Is(err, game.ErrInvalidWinLimit):
		return "invalid_win_limit"
	case errors.Is(err, game.ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, game.ErrUnknownFormation):
		return "unknown_formation"
	case errors.Is(err, game.ErrRoundNotActive), errors.Is(err, game.ErrNotAllPassed),
		errors.Is(err, game.ErrRoundNotOver), errors.Is(err, game.ErrAlreadyPassed),
		errors.Is(err, game.ErrPlayerNotActive):
		return "not_allowed"
	}
	return "error"
}

// parsePlayerPoints turns a {playerId: points} payload into engine input.
func parsePlayerPoints(raw map[string]int) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(raw))
	for k, v := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			return nil, game.ErrPlayerNotFound
		}
		out[id] = v
	}
	return out, nil
}
