// internal/handlers/game_server.go
package handlers

import (
	"net/http"
	"sync"

	"github.com/Lukasz11111/triominos/internal/auth"
	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/middleware"
	"github.com/Lukasz11111/triominos/internal/persist"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GameServer owns the live sessions and everything they are wired to: the persister,
// the optional historian publisher, token issuing and the per-game socket hubs.
type GameServer struct {
	GameStore *game.GameStore
	Persister *persist.Persister
	Entries   game.EntrySink // nil unless the historian is enabled
	Issuer    *auth.Issuer
	Logger    *logrus.Logger

	mu   sync.Mutex
	hubs map[uuid.UUID]*hub
}

func NewGameServer(persister *persist.Persister, issuer *auth.Issuer, logger *logrus.Logger) *GameServer {
	return &GameServer{
		GameStore: game.NewGameStore(),
		Persister: persister,
		Issuer:    issuer,
		Logger:    logger,
		hubs:      make(map[uuid.UUID]*hub),
	}
}

// Register wires a game to the server and makes it reachable.
func (gs *GameServer) Register(g *game.Game) {
	h := gs.hubFor(g.ID)

	g.Mu.Lock()
	g.BroadcastFn = h.broadcast
	if gs.Persister != nil {
		g.Persister = gs.Persister
	}
	if gs.Entries != nil {
		g.Entries = gs.Entries
	}
	g.Mu.Unlock()
	g.SetLogger(gs.Logger)

	gs.GameStore.AddGame(g)
}

// RemoveGame ends a session: sockets are closed, the game is dropped from memory and both
// of its records are cleared.
func (gs *GameServer) RemoveGame(id uuid.UUID) bool {
	g, ok := gs.GameStore.GetGame(id)
	if !ok {
		return false
	}
	g.Detach()
	gs.GameStore.DeleteGame(id)
	if gs.Persister != nil {
		gs.Persister.Clear(id)
	}

	gs.mu.Lock()
	h := gs.hubs[id]
	delete(gs.hubs, id)
	gs.mu.Unlock()
	if h != nil {
		h.closeAll("game ended")
	}
	gs.Logger.WithField("game", id).Info("game removed")
	return true
}

func (gs *GameServer) hubFor(id uuid.UUID) *hub {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	h, ok := gs.hubs[id]
	if !ok {
		h = newHub(id, gs.Logger)
		gs.hubs[id] = h
	}
	return h
}

// Routes builds the HTTP surface, each route wrapped in request logging.
func (gs *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(gs.Logger)

	mux.Handle("POST /game/create", logged(http.HandlerFunc(gs.CreateGameHandler)))
	mux.Handle("POST /game/{id}/token", logged(http.HandlerFunc(gs.TokenHandler)))
	mux.Handle("GET /game/{id}/state", logged(http.HandlerFunc(gs.StateHandler)))
	mux.Handle("GET /game/{id}/history", logged(http.HandlerFunc(gs.HistoryHandler)))
	mux.Handle("DELETE /game/{id}", logged(http.HandlerFunc(gs.DeleteGameHandler)))
	mux.Handle("GET /game/{id}/ws", logged(http.HandlerFunc(gs.GameWSHandler)))
	mux.Handle("GET /tiles", logged(http.HandlerFunc(TilesHandler)))
	return mux
}
