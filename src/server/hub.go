package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"auction-predictor/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// RunHub is the main hub loop. It owns the client set until ctx is done.
func (s *APIServer) RunHub(ctx context.Context) {
	defer close(s.hubDone)
	for {
		select {
		case <-ctx.Done():
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Add(1)
			// Send recent predictions on connect
			client.send <- snapshotMessage(s.Recent())

		case sub := <-s.subscribe:
			// The client may have been dropped since it sent the command
			if _, ok := s.clients[sub.client]; !ok {
				continue
			}
			sub.client.groups = sub.groups
			select {
			case sub.client.send <- snapshotMessage(filterGroups(s.Recent(), sub.groups)):
			default:
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.connections.Add(-1)
			}

		case result := <-s.broadcast:
			message := &models.MFeedMessage{
				Type:        "PREDICTION",
				Predictions: []models.MPredictionResult{*result},
				Timestamp:   time.Now().Unix(),
			}
			for client := range s.clients {
				if !client.wants(result.ProductGroup) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect so the hub never blocks
					delete(s.clients, client)
					close(client.send)
					s.connections.Add(-1)
					s.Logger.Warning("Dropped slow websocket client")
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast records the prediction and queues it for websocket subscribers.
func (s *APIServer) Broadcast(result *models.MPredictionResult) {
	if result == nil {
		return
	}

	s.recentMutex.Lock()
	s.recent.Append(*result)
	s.recentMutex.Unlock()

	select {
	case s.broadcast <- result:
	default:
		s.Logger.Warning("Live feed queue full, prediction %s not broadcast", result.ID)
	}
}

// -----------------------------------------------------------------------------

// Recent returns buffered predictions, oldest first.
func (s *APIServer) Recent() []models.MPredictionResult {
	s.recentMutex.RLock()
	defer s.recentMutex.RUnlock()
	return s.recent.GetAll()
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan *models.MFeedMessage, 64),
	}

	select {
	case s.register <- client:
	case <-s.hubDone:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// subscription carries a subscribe command to the hub loop, which alone
// writes to client.send.
type subscription struct {
	client *Client
	groups map[string]struct{}
}

// HandleClientMessage queues a subscribe command; the hub answers with a filtered snapshot.
func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	select {
	case s.subscribe <- subscription{client: client, groups: groupSet(cmd.ProductGroups)}:
	case <-s.hubDone:
	}
}

// -----------------------------------------------------------------------------

func snapshotMessage(recent []models.MPredictionResult) *models.MFeedMessage {
	if recent == nil {
		recent = []models.MPredictionResult{}
	}
	return &models.MFeedMessage{
		Type:        "SNAPSHOT",
		Predictions: recent,
		Timestamp:   time.Now().Unix(),
	}
}
