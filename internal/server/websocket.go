package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"
	"example/waxroom/internal/service"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const maxFeedMessage = 64 << 10

// catalogFeed --> GET /api/ws
//
// Serves read-only catalog queries over a WebSocket. A frame holds either a
// single message or a JSON array of messages, answered in kind.
func (s *Server) catalogFeed(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Log.Errorw("WebSocket upgrade error", "error", err, "remote_addr", c.RealIP())
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(maxFeedMessage)

	ctx := c.Request().Context()
	clientAddr := c.RealIP()
	logger.Log.Infow("Feed client connected", "remote_addr", clientAddr)

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warnw("WebSocket error", "error", err, "remote_addr", clientAddr)
			}
			break
		}

		if err := conn.WriteJSON(s.answerFrame(ctx, p, clientAddr)); err != nil {
			logger.Log.Errorw("Write error", "error", err, "remote_addr", clientAddr)
			break
		}
	}

	logger.Log.Infow("Feed client disconnected", "remote_addr", clientAddr)
	return nil
}

func (s *Server) answerFrame(ctx context.Context, p []byte, clientAddr string) interface{} {
	if trimmed := bytes.TrimSpace(p); len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []models.WSMessage
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			logger.Log.Warnw("Invalid batch format", "remote_addr", clientAddr, "error", err)
			return models.WSResponse{Success: false, Error: "invalid message format"}
		}
		responses := make([]models.WSResponse, 0, len(batch))
		for _, m := range batch {
			responses = append(responses, s.handleMessage(ctx, m, clientAddr))
		}
		return responses
	}

	var msg models.WSMessage
	if err := json.Unmarshal(p, &msg); err != nil {
		logger.Log.Warnw("Invalid message format", "remote_addr", clientAddr, "error", err)
		return models.WSResponse{Success: false, Error: "invalid message format"}
	}
	return s.handleMessage(ctx, msg, clientAddr)
}

func (s *Server) handleMessage(ctx context.Context, msg models.WSMessage, clientAddr string) models.WSResponse {
	logger.Log.Debugw("Processing action", "action", msg.Action, "remote_addr", clientAddr)

	switch msg.Action {
	case "getAlbums":
		var f models.AlbumFilter
		if len(msg.Data) > 0 && string(msg.Data) != "null" {
			if err := json.Unmarshal(msg.Data, &f); err != nil {
				return models.WSResponse{Success: false, Error: "invalid filter"}
			}
		}
		albums, err := s.svc.Catalog.List(ctx, f)
		if err != nil {
			return feedError(err, msg.Action, clientAddr)
		}
		return models.WSResponse{Success: true, Data: albums}

	case "getAlbumByID":
		var id int64
		if err := json.Unmarshal(msg.Data, &id); err != nil || id <= 0 {
			return models.WSResponse{Success: false, Error: "invalid album ID"}
		}
		alb, err := s.svc.Catalog.Get(ctx, id)
		if err != nil {
			return feedError(err, msg.Action, clientAddr)
		}
		return models.WSResponse{Success: true, Data: alb}

	case "getGenres":
		genres, err := s.svc.Catalog.Genres(ctx)
		if err != nil {
			return feedError(err, msg.Action, clientAddr)
		}
		return models.WSResponse{Success: true, Data: genres}

	default:
		logger.Log.Infow("unknown action", "action", msg.Action, "remote_addr", clientAddr)
		return models.WSResponse{Success: false, Error: "unknown action"}
	}
}

func feedError(err error, action, clientAddr string) models.WSResponse {
	if errors.Is(err, service.ErrNotFound) {
		return models.WSResponse{Success: false, Error: "not found"}
	}
	logger.Log.Errorw("Feed query failed", "action", action, "remote_addr", clientAddr, "error", err)
	return models.WSResponse{Success: false, Error: "server error"}
}
