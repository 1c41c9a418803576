// internal/handlers/game_http.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Lukasz11111/triominos/internal/auth"
	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/tiles"
	"github.com/google/uuid"
)

type createGameRequest struct {
	Rules   map[string]interface{} `json:"rules"`
	Players []string               `json:"players"`
	PIN     string                 `json:"pin,omitempty"`
}

type createGameResponse struct {
	GameID uuid.UUID  `json:"game_id"`
	Token  string     `json:"token"`
	State  game.State `json:"state"`
}

// CreateGameHandler validates the setup form and starts a new session.
func (gs *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	rules, err := game.ParseRules(req.Rules, game.DefaultRules())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	g, err := game.NewGame(rules, req.Players)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.PIN != "" {
		hash, err := auth.HashPIN(req.PIN)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		g.PinHash = hash
	}

	token, err := gs.Issuer.CreateJWT(g.ID)
	if err != nil {
		gs.Logger.WithError(err).Error("failed to create token")
		writeError(w, http.StatusInternalServerError, "error", "failed to create token")
		return
	}

	gs.Register(g)
	g.Sync()

	setAuthCookie(w, token)
	writeJSON(w, http.StatusCreated, createGameResponse{
		GameID: g.ID,
		Token:  token,
		State:  publicState(g.State()),
	})
}

type tokenRequest struct {
	PIN string `json:"pin"`
}

// TokenHandler reissues an operator token for a game protected by a PIN.
func (gs *GameServer) TokenHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := gs.lookupGame(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	hash := g.State().PinHash
	if hash == "" || !auth.CheckPIN(req.PIN, hash) {
		writeError(w, http.StatusForbidden, "forbidden", "invalid pin")
		return
	}
	token, err := gs.Issuer.CreateJWT(g.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error", "failed to create token")
		return
	}
	setAuthCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// StateHandler returns the game-state record.
func (gs *GameServer) StateHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := gs.authorizedGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, publicState(g.State()))
}

// HistoryHandler returns the full ledger, or one player's entries newest first when the
// player query parameter is set.
func (gs *GameServer) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := gs.authorizedGame(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("player")
	if raw == "" {
		writeJSON(w, http.StatusOK, g.History())
		return
	}
	playerID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "player_not_found", "invalid player id")
		return
	}
	entries, err := g.PlayerHistory(playerID)
	if errors.Is(err, game.ErrPlayerNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// DeleteGameHandler is "new game": the session and both of its records are discarded.
func (gs *GameServer) DeleteGameHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := gs.authorizedGame(w, r)
	if !ok {
		return
	}
	gs.RemoveGame(g.ID)
	w.WriteHeader(http.StatusNoContent)
}

// TilesHandler serves the tile catalog, narrowed by the filter query parameter.
func TilesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tiles.Filter(r.URL.Query().Get("filter")))
}

func (gs *GameServer) lookupGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid game id")
		return nil, false
	}
	g, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "game not found")
		return nil, false
	}
	return g, true
}

// authorizedGame resolves the game in the path and checks the request carries a token for it.
func (gs *GameServer) authorizedGame(w http.ResponseWriter, r *http.Request) (*game.Game, bool) {
	g, ok := gs.lookupGame(w, r)
	if !ok {
		return nil, false
	}
	tokenGame, err := gs.Issuer.AuthenticateJWT(requestToken(r))
	if err != nil || tokenGame != g.ID {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return nil, false
	}
	return g, true
}
