package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/types"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

type Client struct {
	conn          *websocket.Conn
	auctionServer *AuctionServer
	log           *logrus.Logger
	user          types.User
	send          chan *ServerMessage
	rooms         map[string]*Room
	roomsLock     sync.RWMutex
	stop          chan struct{}
	stopOnce      sync.Once
}

func NewClient(user types.User, conn *websocket.Conn, as *AuctionServer, l *logrus.Logger) *Client {
	return &Client{
		conn:          conn,
		auctionServer: as,
		log:           l,
		user:          user,
		send:          make(chan *ServerMessage, 256),
		rooms:         make(map[string]*Room),
		stop:          make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(time.Duration(pingInterval))
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Debug("write exiting")
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.WithError(err).Error("failed to serialize message")
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Debug("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("ws: read")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.WithError(err).Warn("error parsing message")
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.UserId = c.user.Id
		msg.Timestamp = Now()

		switch {
		case msg.Join != nil:
			c.joinAuction(&msg)
		case msg.Leave != nil:
			c.leaveAuction(&msg)
		case msg.Bid != nil:
			c.submitBid(&msg)
		default:
			c.queueMessage(ErrInvalidMessage(msg.Id))
		}
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.WithField("user_id", c.user.Id).Warn("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.WithError(err).Warn("write message")
		}
		return false
	}

	return true
}

// stopClient is safe to call from both the connection cleanup path and
// server shutdown.
func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// cleanup runs when the read pump exits. The connection's room memberships
// are removed immediately; in-flight moderation decisions are unaffected.
func (c *Client) cleanup() {
	// the run loop stops draining DeRegisterChan once it has exited
	select {
	case c.auctionServer.DeRegisterChan <- c:
	case <-c.auctionServer.done:
	}
	c.leaveAllRooms()
	c.stopClient()
}

func (c *Client) leaveAllRooms() {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	for _, room := range c.rooms {
		room.leaveChan <- &ClientMessage{
			Leave:  &Leave{AuctionId: room.externalId},
			UserId: c.user.Id,
			client: c,
		}
	}
}

func (c *Client) joinAuction(msg *ClientMessage) {
	select {
	case c.auctionServer.joinChan <- msg:
	default:
		c.log.Warn("joinChan full")
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) leaveAuction(msg *ClientMessage) {
	r := c.getRoom(msg.Leave.AuctionId)
	if r == nil {
		c.log.WithField("auction_id", msg.Leave.AuctionId).Debug("leave for unknown room")
		return
	}

	select {
	case r.leaveChan <- msg:
	default:
		c.log.WithField("auction_id", r.externalId).Warn("leaveChan full")
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) submitBid(msg *ClientMessage) {
	r := c.getRoom(msg.Bid.AuctionId)
	if r == nil {
		c.queueMessage(ErrNotJoined(msg.Id))
		return
	}

	select {
	case r.submitChan <- msg:
	default:
		c.log.WithField("auction_id", r.externalId).Warn("submitChan full")
		c.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

func (c *Client) delRoom(id string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	delete(c.rooms, id)
}

func (c *Client) addRoom(r *Room) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	c.rooms[r.externalId] = r
}

func (c *Client) getRoom(id string) *Room {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	return c.rooms[id]
}
