// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lukasz11111/triominos/internal/game"
	"github.com/Lukasz11111/triominos/internal/middleware"
	"github.com/Lukasz11111/triominos/internal/models"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GameMessage is an operator action received over the game socket. Which fields are read
// depends on Type. Numeric operator input arrives as text and is parsed by the engine.
type GameMessage struct {
	Type string `json:"type"`

	Tile      *models.Tile   `json:"tile,omitempty"`      // action_tile
	Points    string         `json:"points,omitempty"`    // action_points
	Bonus     string         `json:"bonus,omitempty"`     // action_select_bonus
	Opponents map[string]int `json:"opponents,omitempty"` // action_victory
	Losses    map[string]int `json:"losses,omitempty"`    // action_round_end
	PlayerID  string         `json:"playerId,omitempty"`  // action_pass, action_manual_edit, action_jump, action_end_turn
	Total     string         `json:"total,omitempty"`     // action_manual_edit
	Limit     string         `json:"limit,omitempty"`     // action_win_limit

	TileSelector  bool `json:"tileSelector,omitempty"`  // action_panels
	VictoryInputs bool `json:"victoryInputs,omitempty"` // action_panels
}

// errUnknownAction is reported for message types the server does not handle.
var errUnknownAction = errors.New("unknown action type")

// GameWSHandler upgrades the connection for the game in the path, sends the current
// state, then applies operator actions until the socket closes.
func (gs *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	g, ok := gs.authorizedGame(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		gs.Logger.WithError(err).WithField("game", g.ID).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler exited")

	if c.Subprotocol() != "game" {
		c.Close(BadSubprotocolError, "client must use the 'game' subprotocol")
		return
	}
	middleware.LogWebSocketConnect(gs.Logger, r.RemoteAddr, r.URL.Path)

	h := gs.hubFor(g.ID)
	var cl *client
	// join under the game lock so no change lands between the snapshot and the registration
	g.WithState(func(st game.State) {
		state := publicState(st)
		cl = h.add(c, game.EventBytes(game.GameEvent{Type: game.EventState, State: &state}))
	})
	defer h.drop(cl)

	err = gs.readGameMessages(r.Context(), c, h, cl, g)
	middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, r.URL.Path, err)
}

// readGameMessages applies each message in arrival order. Accepted actions reach clients
// through the game's broadcast; a rejected one is answered privately with an error.
func (gs *GameServer) readGameMessages(ctx context.Context, c *websocket.Conn, h *hub, cl *client, g *game.Game) error {
	log := gs.Logger.WithField("game", g.ID)
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			log.Warn("ignoring non-text message")
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendTo(cl, errorMessage("invalid_json", "invalid JSON format"))
			continue
		}
		if msg.Type == "ping" {
			h.sendTo(cl, mustJSON(map[string]string{"type": "pong"}))
			continue
		}

		log.WithField("action", msg.Type).Debug("operator action")
		if err := applyAction(g, msg); err != nil {
			log.WithFields(logrus.Fields{"action": msg.Type, "error": err}).Info("action rejected")
			h.sendTo(cl, errorMessage(errorCode(err), err.Error()))
		}
	}
}

// applyAction routes one operator message to the engine.
func applyAction(g *game.Game, msg GameMessage) error {
	switch msg.Type {
	case "action_tile":
		if msg.Tile == nil {
			return game.ErrInvalidTile
		}
		_, err := g.ScoreTile(*msg.Tile)
		return err
	case "action_points":
		_, err := g.ScoreManualInput(msg.Points)
		return err
	case "action_select_bonus":
		return g.SelectFormation(game.Formation(msg.Bonus))
	case "action_clear_bonus":
		g.ClearFormation()
		return nil
	case "action_draw":
		_, err := g.ApplyDrawPenalty()
		return err
	case "action_pass":
		id := g.CurrentPlayerID()
		if msg.PlayerID != "" {
			parsed, err := uuid.Parse(msg.PlayerID)
			if err != nil {
				return game.ErrPlayerNotFound
			}
			id = parsed
		}
		return g.Pass(id)
	case "action_victory":
		opponents, err := parsePlayerPoints(msg.Opponents)
		if err != nil {
			return err
		}
		_, err = g.DeclareVictory(opponents)
		return err
	case "action_round_end":
		losses, err := parsePlayerPoints(msg.Losses)
		if err != nil {
			return err
		}
		_, err = g.ResolveRoundEnd(losses)
		return err
	case "action_pass_lap":
		return g.AnotherPassLap()
	case "action_next_round":
		return g.StartNextRound()
	case "action_manual_edit":
		id, err := uuid.Parse(msg.PlayerID)
		if err != nil {
			return game.ErrPlayerNotFound
		}
		_, err = g.ManualEditInput(id, msg.Total)
		return err
	case "action_win_limit":
		return g.SetWinLimitInput(msg.Limit)
	case "action_jump", "action_end_turn":
		id, err := uuid.Parse(msg.PlayerID)
		if err != nil {
			return game.ErrPlayerNotFound
		}
		if msg.Type == "action_jump" {
			return g.JumpToPlayer(id)
		}
		return g.EndPlayerTurn(id)
	case "action_panels":
		g.SetPanels(msg.TileSelector, msg.VictoryInputs)
		return nil
	}
	return fmt.Errorf("%w: %s", errUnknownAction, msg.Type)
}

func errorMessage(code, message string) []byte {
	return mustJSON(map[string]string{
		"type":    "error",
		"code":    code,
		"message": message,
	})
}

func mustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
