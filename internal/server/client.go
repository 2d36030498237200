package server

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/go-drawboard/drawboard/internal/stats"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingInterval = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 65536
	// Size of the outbound message buffer.
	sendBufferSize = 256
)

// Client is a single websocket connection attached to a board. The board
// actor assigns its identity fields during the join handshake, before the
// pumps are started.
type Client struct {
	conn  *websocket.Conn
	bs    *BoardServer
	log   *logrus.Logger
	board *Board

	userId   string
	nickname string
	role     string

	send      chan any
	stop      chan struct{}
	closeOnce sync.Once
	closeCode int
	closeText string

	// lastSeen is unix nanos of the most recent inbound activity, updated
	// from the read pump and read by the board's stale sweep.
	lastSeen atomic.Int64
}

func newClient(conn *websocket.Conn, bs *BoardServer) *Client {
	c := &Client{
		conn: conn,
		bs:   bs,
		log:  bs.log,
		send: make(chan any, sendBufferSize),
		stop: make(chan struct{}),
	}
	c.touch()
	return c
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

func (c *Client) idle() time.Duration {
	return time.Since(time.Unix(0, c.lastSeen.Load()))
}

// queueMessage enqueues an outbound message without blocking. A full buffer
// means the peer cannot keep up, in which case the message is dropped.
func (c *Client) queueMessage(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		c.log.WithFields(logrus.Fields{
			"user": c.userId,
		}).Warn("send buffer full, dropping message")
		c.bs.stats.Incr(stats.EventsDropped)
		return false
	}
}

// terminate requests connection shutdown with the given close code and
// reason. The write pump flushes any queued messages before sending the
// close frame, so a message queued immediately before terminate still
// reaches the peer.
func (c *Client) terminate(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeText = reason
		close(c.stop)
	})
}

// readPump decodes inbound events and forwards them to the board goroutine.
// It exits when the connection errors or is closed, at which point it
// notifies the board that the client left.
func (c *Client) readPump() {
	defer func() {
		c.board.leaveChan <- c
		c.terminate(websocket.CloseNormalClosure, "")
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Error("failed setting read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("websocket closed unexpectedly")
			}
			return
		}

		c.touch()
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Error("failed setting read deadline")
			return
		}

		ev.client = c
		select {
		case c.board.eventChan <- &ev:
		default:
			c.log.WithFields(logrus.Fields{
				"board": c.board.id,
				"user":  c.userId,
			}).Warn("board event queue full, dropping event")
			c.bs.stats.Incr(stats.EventsDropped)
		}
	}
}

// writePump serializes outbound messages to the connection and keeps the
// peer alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.writeJSON(msg); err != nil {
				c.log.WithError(err).Debug("failed writing message")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.stop:
			c.flush()
			deadline := time.Now().Add(writeWait)
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeText)
			if err := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				c.log.WithError(err).Debug("failed writing close message")
			}
			return
		}
	}
}

// flush drains whatever is already queued so messages sent just before
// terminate (kick notices, session end) are delivered.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.writeJSON(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeJSON(msg any) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
