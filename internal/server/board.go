package server

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/go-drawboard/drawboard/internal/auth"
	"github.com/go-drawboard/drawboard/internal/stats"
	"github.com/go-drawboard/drawboard/internal/types"
)

const (
	defaultMaxUsers   = 10
	defaultMaxObjects = 5000
	defaultLayerId    = "default"

	// How long a board survives after its admin disconnects.
	adminShutdownDelay = 600 * time.Second
	// Connections silent for longer than this are reaped by the sweep.
	staleConnTimeout = 90 * time.Second
	// How long a kicked user is locked out before their token works again.
	kickTimeout = 60 * time.Second

	eventBufferSize = 256
)

// userColors is the palette assigned to users in join order.
var userColors = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#008080", "#9a6324",
}

type joinRequest struct {
	client *Client
	token  string
	reply  chan joinResult
}

type joinResult struct {
	err error
}

type exitRequest struct {
	reason string
}

// Board holds the authoritative state of one whiteboard session. All fields
// are owned by the board goroutine started with start(); other goroutines
// interact with the board exclusively through its channels.
type Board struct {
	id           string
	adminId      string
	createdAt    time.Time
	lastActivity time.Time
	active       bool

	maxUsers    int
	maxObjects  int
	objectCount int

	users   map[string]*types.User
	strokes map[string]*types.Stroke
	shapes  map[string]*types.Shape
	texts   map[string]*types.TextObject
	order   []string
	layers  []types.Layer

	clients  map[string]*Client
	timeouts map[string]time.Time
	banned   map[string]bool
	limiter  *rateLimiter

	bs  *BoardServer
	log *logrus.Logger

	joinChan  chan *joinRequest
	leaveChan chan *Client
	eventChan chan *Event
	sweepChan chan struct{}
	exitChan  chan *exitRequest
	done      chan struct{}

	// shutdownDelay is adminShutdownDelay in production; tests shorten it.
	shutdownDelay       time.Duration
	adminTimer          *time.Timer
	adminDisconnectedAt time.Time
}

func newBoard(id, adminId string, bs *BoardServer) *Board {
	b := &Board{
		id:            id,
		adminId:       adminId,
		createdAt:     time.Now(),
		lastActivity:  time.Now(),
		active:        true,
		maxUsers:      defaultMaxUsers,
		maxObjects:    defaultMaxObjects,
		users:         make(map[string]*types.User),
		strokes:       make(map[string]*types.Stroke),
		shapes:        make(map[string]*types.Shape),
		texts:         make(map[string]*types.TextObject),
		layers:        []types.Layer{{ID: defaultLayerId, Name: "Layer 1", Order: 0}},
		clients:       make(map[string]*Client),
		timeouts:      make(map[string]time.Time),
		banned:        make(map[string]bool),
		limiter:       newRateLimiter(rateLimitBudget, rateLimitWindow),
		bs:            bs,
		log:           bs.log,
		joinChan:      make(chan *joinRequest, eventBufferSize),
		leaveChan:     make(chan *Client, eventBufferSize),
		eventChan:     make(chan *Event, eventBufferSize),
		sweepChan:     make(chan struct{}, 1),
		exitChan:      make(chan *exitRequest, 1),
		done:          make(chan struct{}),
		shutdownDelay: bs.shutdownDelay,
	}

	b.adminTimer = time.NewTimer(b.shutdownDelay)
	b.stopAdminTimer()

	b.users[adminId] = &types.User{
		ID:       adminId,
		Nickname: "Admin" + id[:4],
		Role:     types.RoleAdmin,
		Color:    userColors[0],
	}

	return b
}

// start runs the board's event loop. It is the only goroutine that touches
// board state, which is what serializes capacity checks, joins and drawing
// events per board.
func (b *Board) start() {
	for {
		select {
		case req := <-b.joinChan:
			req.reply <- joinResult{err: b.handleJoin(req)}
		case c := <-b.leaveChan:
			b.handleLeave(c)
		case ev := <-b.eventChan:
			b.dispatch(ev)
		case <-b.adminTimer.C:
			b.log.WithField("board", b.id).Info("admin grace period expired, closing board")
			b.endSession("admin_timeout", "")
		case <-b.sweepChan:
			b.reapStale()
		case req := <-b.exitChan:
			b.shutdown(req.reason)
			close(b.done)
			return
		case <-b.bs.stopChan:
			b.shutdown("server shutting down")
			close(b.done)
			return
		}
	}
}

func (b *Board) stopAdminTimer() {
	if !b.adminTimer.Stop() {
		select {
		case <-b.adminTimer.C:
		default:
		}
	}
	b.adminDisconnectedAt = time.Time{}
}

// handleJoin attaches a client, either resuming an existing identity from a
// session token or minting a new one. A non-nil error rejects the join and
// the connection is never attached.
func (b *Board) handleJoin(req *joinRequest) error {
	if !b.active {
		return ErrBoardInactive
	}

	c := req.client
	var user *types.User

	if req.token != "" {
		userId, err := b.bs.tokens.Validate(req.token, b.id)
		switch {
		case err == nil:
			user = b.users[userId]
		case err == auth.ErrTokenRevoked:
			// Rotated-away tokens are also revoked; only a ban
			// rejects the join. Anything else falls through to a
			// fresh join.
			if b.banned[userId] {
				return ErrUserBanned
			}
		}
	}

	if user != nil {
		if until, ok := b.timeouts[user.ID]; ok {
			if time.Now().Before(until) {
				return ErrUserTimedOut
			}
			delete(b.timeouts, user.ID)
		}
	}

	rejoin := user != nil
	if rejoin {
		// Superseding an existing connection does not raise the count;
		// resuming a disconnected identity does.
		if _, connected := b.clients[user.ID]; !connected && len(b.clients) >= b.maxUsers {
			return ErrBoardFull
		}
	} else {
		if len(b.clients) >= b.maxUsers {
			return ErrBoardFull
		}
		userId, err := auth.NewUserID()
		if err != nil {
			return fmt.Errorf("generating user id: %w", err)
		}
		user = &types.User{
			ID:       userId,
			Nickname: fmt.Sprintf("User%d", len(b.clients)+1),
			Role:     types.RoleUser,
			Color:    userColors[len(b.users)%len(userColors)],
		}
		b.users[user.ID] = user
	}

	token, err := b.bs.tokens.Issue(user.ID, b.id, 0)
	if err != nil {
		return fmt.Errorf("issuing session token: %w", err)
	}

	if rejoin {
		// Session tokens are single-use. The presented token is
		// retired here; the welcome message carries its replacement.
		b.bs.tokens.Revoke(req.token)
		if err := b.bs.db.RevokeToken(req.token); err != nil {
			b.log.WithError(err).Error("failed persisting token revocation")
		}
	}

	// A second connection for the same identity supersedes the first.
	if old, ok := b.clients[user.ID]; ok {
		delete(b.clients, user.ID)
		old.terminate(websocket.ClosePolicyViolation, "superseded by new connection")
	}

	c.board = b
	c.userId = user.ID
	c.nickname = user.Nickname
	c.role = user.Role
	b.clients[user.ID] = c
	user.Connected = true
	user.ConnectedAt = nowUnix()
	b.bs.stats.Incr(stats.ActiveConnections)

	if user.ID == b.adminId && !b.adminDisconnectedAt.IsZero() {
		b.stopAdminTimer()
		b.broadcast(newAdminReconnected(), c)
	}

	b.persistUser(user)
	b.persistToken(user.ID, token)
	if err := b.bs.db.TouchBoard(b.id); err != nil {
		b.log.WithError(err).Error("failed touching board")
	}

	c.queueMessage(&WelcomeMessage{
		baseMessage: base(MsgWelcome),
		BoardID:     b.id,
		UserID:      user.ID,
		Token:       token,
		Nickname:    user.Nickname,
		Role:        user.Role,
		BoardState:  b.snapshot(),
	})

	if !rejoin {
		b.broadcast(newUserJoined(user), c)
	}

	b.log.WithFields(logrus.Fields{
		"board":  b.id,
		"user":   user.ID,
		"role":   user.Role,
		"rejoin": rejoin,
	}).Info("user joined board")

	return nil
}

func (b *Board) handleLeave(c *Client) {
	// A superseded or already-removed connection has nothing left to do.
	if b.clients[c.userId] != c {
		return
	}

	delete(b.clients, c.userId)
	b.bs.stats.Decr(stats.ActiveConnections)
	if user, ok := b.users[c.userId]; ok {
		user.Connected = false
	}
	if err := b.bs.db.SetUserConnected(b.id, c.userId, false); err != nil {
		b.log.WithError(err).Error("failed persisting user state")
	}

	b.broadcast(newUserLeft(c.userId), nil)
	b.log.WithFields(logrus.Fields{
		"board": b.id,
		"user":  c.userId,
	}).Info("user left board")

	if c.userId == b.adminId && b.active {
		b.adminDisconnectedAt = time.Now()
		b.adminTimer.Reset(b.shutdownDelay)
		b.broadcast(newAdminCountdown(int(b.shutdownDelay.Seconds())), nil)
	}
}

// broadcast queues a message to every connected client except skip.
func (b *Board) broadcast(msg any, skip *Client) {
	for _, c := range b.clients {
		if c == skip {
			continue
		}
		c.queueMessage(msg)
	}
}

// snapshot assembles the full board state sent in welcome messages. Objects
// appear in creation order.
func (b *Board) snapshot() *types.BoardState {
	state := &types.BoardState{
		BoardID:     b.id,
		Users:       make([]types.User, 0, len(b.users)),
		Strokes:     make([]types.Stroke, 0, len(b.strokes)),
		Shapes:      make([]types.Shape, 0, len(b.shapes)),
		Texts:       make([]types.TextObject, 0, len(b.texts)),
		Layers:      b.layers,
		ObjectCount: b.objectCount,
		MaxObjects:  b.maxObjects,
		MaxUsers:    b.maxUsers,
		AdminOnline: b.clients[b.adminId] != nil,
		CreatedAt:   float64(b.createdAt.UnixMilli()) / 1000,
	}
	if !b.adminDisconnectedAt.IsZero() {
		state.AdminDisconnectedAt = float64(b.adminDisconnectedAt.UnixMilli()) / 1000
	}

	for _, u := range b.users {
		state.Users = append(state.Users, *u)
	}
	for _, id := range b.order {
		if s, ok := b.strokes[id]; ok {
			state.Strokes = append(state.Strokes, *s)
		} else if s, ok := b.shapes[id]; ok {
			state.Shapes = append(state.Shapes, *s)
		} else if t, ok := b.texts[id]; ok {
			state.Texts = append(state.Texts, *t)
		}
	}

	return state
}

func (b *Board) checkCapacity() error {
	if b.objectCount >= b.maxObjects {
		return ErrCapacityExceeded
	}
	return nil
}

func (b *Board) addStroke(s *types.Stroke) error {
	if err := b.checkCapacity(); err != nil {
		return err
	}
	b.strokes[s.ID] = s
	b.order = append(b.order, s.ID)
	b.objectCount++
	b.bs.stats.Incr(stats.ObjectsCreated)
	return nil
}

func (b *Board) addShape(s *types.Shape) error {
	if err := b.checkCapacity(); err != nil {
		return err
	}
	b.shapes[s.ID] = s
	b.order = append(b.order, s.ID)
	b.objectCount++
	b.bs.stats.Incr(stats.ObjectsCreated)
	return nil
}

func (b *Board) addText(t *types.TextObject) error {
	if err := b.checkCapacity(); err != nil {
		return err
	}
	b.texts[t.ID] = t
	b.order = append(b.order, t.ID)
	b.objectCount++
	b.bs.stats.Incr(stats.ObjectsCreated)
	return nil
}

func (b *Board) appendStrokePoints(strokeId string, points []types.Point) bool {
	s, ok := b.strokes[strokeId]
	if !ok {
		return false
	}
	s.Points = append(s.Points, points...)
	return true
}

// deleteObject removes an object of any kind. It reports whether anything
// was removed.
func (b *Board) deleteObject(objectId string) bool {
	found := false
	if _, ok := b.strokes[objectId]; ok {
		delete(b.strokes, objectId)
		found = true
	} else if _, ok := b.shapes[objectId]; ok {
		delete(b.shapes, objectId)
		found = true
	} else if _, ok := b.texts[objectId]; ok {
		delete(b.texts, objectId)
		found = true
	}

	if !found {
		return false
	}

	for i, id := range b.order {
		if id == objectId {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if b.objectCount > 0 {
		b.objectCount--
	}
	b.bs.stats.Incr(stats.ObjectsDeleted)

	if err := b.bs.db.DeleteObject(b.id, objectId); err != nil {
		b.log.WithError(err).Error("failed deleting object")
	}

	return true
}

// endSession permanently closes the board. All clients are notified and
// disconnected and the board unregisters itself. The goroutine keeps
// running in the inactive state so late channel sends are still drained
// until the server confirms the unload.
func (b *Board) endSession(reason, adminId string) {
	if !b.active {
		return
	}
	b.active = false
	b.stopAdminTimer()

	msg := newSessionEnded(reason, adminId)
	for _, c := range b.clients {
		c.queueMessage(msg)
		c.terminate(websocket.ClosePolicyViolation, reason)
	}

	b.bs.tokens.ReleaseBoard(b.id)
	if err := b.bs.db.DeactivateBoard(b.id); err != nil {
		b.log.WithError(err).Error("failed deactivating board")
	}

	b.log.WithFields(logrus.Fields{
		"board":  b.id,
		"reason": reason,
	}).Info("board session ended")

	select {
	case b.bs.unloadChan <- b.id:
	case <-b.bs.stopChan:
	}
}

// shutdown handles the final exit request from the server.
func (b *Board) shutdown(reason string) {
	if b.active {
		b.active = false
		b.stopAdminTimer()
		msg := newSessionEnded(reason, "")
		for _, c := range b.clients {
			c.queueMessage(msg)
			c.terminate(websocket.CloseGoingAway, reason)
		}
		b.bs.tokens.ReleaseBoard(b.id)
		if err := b.bs.db.DeactivateBoard(b.id); err != nil {
			b.log.WithError(err).Error("failed deactivating board")
		}
	}
	for range b.clients {
		b.bs.stats.Decr(stats.ActiveConnections)
	}
	b.clients = make(map[string]*Client)
}

// reapStale disconnects clients that have produced no reads or pongs within
// staleConnTimeout. The leave flow runs when their read pumps exit.
func (b *Board) reapStale() {
	for _, c := range b.clients {
		if c.idle() > staleConnTimeout {
			b.log.WithFields(logrus.Fields{
				"board": b.id,
				"user":  c.userId,
			}).Info("disconnecting stale connection")
			c.terminate(websocket.CloseGoingAway, "connection timed out")
			// Remove now rather than waiting on the read pump; a pump
			// that never started would otherwise leak the slot.
			b.handleLeave(c)
		}
	}
}
