package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/whoopiegame/whoopie/internal/gamecode"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client. Outbound messages go through
// a buffered send channel serviced by the write pump; inbound messages
// are dispatched to the manager from the read pump.
type Connection struct {
	conn       *websocket.Conn
	send       chan *Message
	playerID   string
	playerName string
	logger     *log.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	closeOnce  sync.Once
	manager    *Manager
}

// NewConnection creates a connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, manager *Manager) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		manager: manager,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// The send channel was closed during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID, playerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.playerName = playerName
}

// PlayerID returns the associated player id, empty before hello
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName returns the associated player name
func (c *Connection) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches one inbound message
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.PlayerID())

	if msg.Type == MessageTypeHello {
		var data HelloData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse hello data")
			return
		}
		c.handleHello(data)
		return
	}

	playerID := c.PlayerID()
	if playerID == "" {
		c.sendError("not_authenticated", "Send hello first")
		return
	}

	switch msg.Type {
	case MessageTypeCreateGame:
		var data CreateGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create game data")
			return
		}
		room, seat, err := c.manager.CreateGame(playerID, c.PlayerName(), data)
		if err != nil {
			c.sendError("create_failed", err.Error())
			return
		}
		c.sendJoined(room, seat)

	case MessageTypeJoinGame:
		var data JoinGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join game data")
			return
		}
		room, seat, err := c.manager.JoinGame(playerID, c.PlayerName(), data.JoinCode)
		if err != nil {
			c.sendError("join_failed", err.Error())
			return
		}
		c.sendJoined(room, seat)

	case MessageTypeRejoinGame:
		var data RejoinGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse rejoin game data")
			return
		}
		room, seat, err := c.manager.RejoinGame(playerID, data.GameID)
		if err != nil {
			c.sendError("rejoin_failed", err.Error())
			return
		}
		c.sendJoined(room, seat)

	case MessageTypeLeaveGame:
		if err := c.manager.LeaveGame(playerID); err != nil {
			c.sendError("leave_failed", err.Error())
			return
		}
		response, _ := NewMessage(MessageTypeGameLeft, GameLeftData{})
		_ = c.SendMessage(response)

	case MessageTypeAddBot:
		var data AddBotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse add bot data")
			return
		}
		if err := c.manager.AddBot(playerID, data); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	case MessageTypeStartGame:
		if err := c.manager.StartGame(playerID); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	case MessageTypePlaceBid:
		var data PlaceBidData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse bid data")
			return
		}
		if err := c.manager.PlaceBid(playerID, data.Bid); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	case MessageTypePlayCard:
		var data PlayCardData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play data")
			return
		}
		if err := c.manager.PlayCard(playerID, data.Card, data.CalledWhoopie); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	case MessageTypeContinue:
		if err := c.manager.Continue(playerID); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	case MessageTypeRemoveSeat:
		var data RemoveSeatData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse remove seat data")
			return
		}
		if err := c.manager.RemoveSeat(playerID, data.Seat); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	case MessageTypeEndGame:
		if err := c.manager.EndGame(playerID); err != nil {
			c.sendError("command_rejected", err.Error())
		}

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleHello(data HelloData) {
	if data.PlayerName == "" {
		c.sendError("invalid_hello", "Player name required")
		return
	}

	playerID := data.PlayerID
	if playerID == "" || gamecode.ValidateID(playerID) != nil {
		playerID = gamecode.NewID()
	}
	c.SetPlayer(playerID, data.PlayerName)
	c.logger.Info("Player connected", "player", data.PlayerName, "playerID", playerID)

	response, _ := NewMessage(MessageTypeWelcome, WelcomeData{
		PlayerID:   playerID,
		PlayerName: data.PlayerName,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) sendJoined(room *Room, seat int) {
	response, err := NewMessage(MessageTypeGameJoined, GameJoinedData{
		GameID:   room.ID(),
		JoinCode: room.JoinCode(),
		Seat:     seat,
	})
	if err != nil {
		c.logger.Error("Failed to create game joined message", "error", err)
		return
	}
	_ = c.SendMessage(response)
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}
