package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/go-drawboard/drawboard/internal/auth"
	"github.com/go-drawboard/drawboard/internal/database"
	"github.com/go-drawboard/drawboard/internal/stats"
)

const (
	joinCodeLength   = 6
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// How often boards are prompted to sweep stale connections.
	sweepInterval = 30 * time.Second

	requestTimeout = 10 * time.Second
)

type createRequest struct {
	client *Client
	reply  chan joinResult
}

type serverJoinRequest struct {
	client  *Client
	boardId string
	token   string
	reply   chan joinResult
}

// BoardServer owns the board registry. Board creation, join routing and
// unloading are serialized on its run loop; everything inside a board is
// serialized on that board's own goroutine.
type BoardServer struct {
	log    *logrus.Logger
	db     database.Repository
	tokens *auth.TokenManager
	stats  stats.StatsProvider

	boards map[string]*Board

	createChan chan *createRequest
	joinChan   chan *serverJoinRequest
	unloadChan chan string
	stopChan   chan struct{}
	done       chan struct{}

	// shutdownDelay is the admin grace period handed to new boards.
	shutdownDelay time.Duration
}

func NewBoardServer(logger *logrus.Logger, db database.Repository, tokens *auth.TokenManager, statsProvider stats.StatsProvider) *BoardServer {
	bs := &BoardServer{
		log:           logger,
		db:            db,
		tokens:        tokens,
		stats:         statsProvider,
		boards:        make(map[string]*Board),
		createChan:    make(chan *createRequest, 16),
		joinChan:      make(chan *serverJoinRequest, 64),
		unloadChan:    make(chan string, 16),
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
		shutdownDelay: adminShutdownDelay,
	}

	for _, metric := range []string{
		stats.ActiveBoards,
		stats.ActiveConnections,
		stats.ObjectsCreated,
		stats.ObjectsDeleted,
		stats.EventsDispatched,
		stats.EventsDropped,
	} {
		bs.stats.RegisterMetric(metric)
	}

	return bs
}

// Run processes registry requests until Shutdown. It must run in its own
// goroutine.
func (bs *BoardServer) Run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case req := <-bs.createChan:
			req.reply <- bs.handleCreate(req.client)
		case req := <-bs.joinChan:
			bs.handleJoinRoute(req)
		case id := <-bs.unloadChan:
			bs.unloadBoard(id)
		case <-ticker.C:
			for _, b := range bs.boards {
				select {
				case b.sweepChan <- struct{}{}:
				default:
				}
			}
		case <-bs.stopChan:
			for _, b := range bs.boards {
				<-b.done
			}
			close(bs.done)
			return
		}
	}
}

// Shutdown stops the server and waits for every board to wind down or the
// context to expire.
func (bs *BoardServer) Shutdown(ctx context.Context) error {
	close(bs.stopChan)
	select {
	case <-bs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleCreate allocates a join code, seeds the board with its admin
// identity and hands the creating client to the new board goroutine.
func (bs *BoardServer) handleCreate(c *Client) joinResult {
	code, err := bs.newJoinCode()
	if err != nil {
		return joinResult{err: err}
	}
	adminId, err := auth.NewUserID()
	if err != nil {
		return joinResult{err: fmt.Errorf("generating admin id: %w", err)}
	}

	b := newBoard(code, adminId, bs)
	adminToken, err := bs.tokens.Issue(adminId, code, 0)
	if err != nil {
		return joinResult{err: fmt.Errorf("issuing admin token: %w", err)}
	}

	bs.boards[code] = b
	b.persistBoard()
	go b.start()
	bs.stats.Incr(stats.ActiveBoards)
	bs.log.WithFields(logrus.Fields{
		"board": code,
		"admin": adminId,
	}).Info("board created")

	// The creator attaches through the normal join path using the freshly
	// issued admin token, which lands on the rejoin branch.
	req := &joinRequest{client: c, token: adminToken, reply: make(chan joinResult, 1)}
	b.joinChan <- req
	return <-req.reply
}

func (bs *BoardServer) handleJoinRoute(req *serverJoinRequest) {
	b, ok := bs.boards[req.boardId]
	if !ok {
		req.reply <- joinResult{err: ErrBoardNotFound}
		return
	}

	boardReq := &joinRequest{client: req.client, token: req.token, reply: req.reply}
	select {
	case b.joinChan <- boardReq:
	default:
		req.reply <- joinResult{err: ErrServerBusy}
	}
}

func (bs *BoardServer) unloadBoard(id string) {
	b, ok := bs.boards[id]
	if !ok {
		return
	}
	delete(bs.boards, id)
	bs.stats.Decr(stats.ActiveBoards)
	b.exitChan <- &exitRequest{reason: "board unloaded"}
	bs.log.WithField("board", id).Info("board unloaded")
}

// newJoinCode draws uniform 6-character codes until one is free. Collisions
// against live boards are retried; the alphabet gives ~2 billion codes.
func (bs *BoardServer) newJoinCode() (string, error) {
	// Rejection sampling keeps the draw uniform over the alphabet.
	const limit = 256 - 256%len(joinCodeAlphabet)

	for attempt := 0; attempt < 100; attempt++ {
		code := make([]byte, joinCodeLength)
		for i := 0; i < joinCodeLength; {
			var buf [1]byte
			if _, err := rand.Read(buf[:]); err != nil {
				return "", fmt.Errorf("generating join code: %w", err)
			}
			if int(buf[0]) >= limit {
				continue
			}
			code[i] = joinCodeAlphabet[int(buf[0])%len(joinCodeAlphabet)]
			i++
		}
		if _, taken := bs.boards[string(code)]; !taken {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("could not allocate a join code")
}

// CreateSession runs the full create flow for an upgraded connection:
// board allocation, admin attach, then the client pumps. On failure the
// connection is closed with a policy-violation close frame.
func (bs *BoardServer) CreateSession(conn *websocket.Conn) {
	c := newClient(conn, bs)

	req := &createRequest{client: c, reply: make(chan joinResult, 1)}
	select {
	case bs.createChan <- req:
	case <-bs.stopChan:
		rejectConn(conn, "server shutting down")
		return
	}

	if err := bs.awaitAttach(conn, req.reply); err != nil {
		return
	}

	go c.writePump()
	c.readPump()
}

// JoinSession attaches an upgraded connection to an existing board,
// optionally resuming a prior identity via token, then runs the client
// pumps. Rejections close the connection with a reason the client can show.
func (bs *BoardServer) JoinSession(conn *websocket.Conn, boardId, token string) {
	c := newClient(conn, bs)

	req := &serverJoinRequest{client: c, boardId: boardId, token: token, reply: make(chan joinResult, 1)}
	select {
	case bs.joinChan <- req:
	case <-bs.stopChan:
		rejectConn(conn, "server shutting down")
		return
	}

	if err := bs.awaitAttach(conn, req.reply); err != nil {
		return
	}

	go c.writePump()
	c.readPump()
}

func (bs *BoardServer) awaitAttach(conn *websocket.Conn, reply chan joinResult) error {
	var res joinResult
	select {
	case res = <-reply:
	case <-time.After(requestTimeout):
		res = joinResult{err: ErrServerBusy}
	case <-bs.stopChan:
		res = joinResult{err: fmt.Errorf("server shutting down")}
	}

	if res.err != nil {
		bs.log.WithError(res.err).Info("join rejected")
		rejectConn(conn, rejectionMessage(res.err))
		return res.err
	}
	return nil
}

// rejectionMessage maps join errors to the messages clients display.
func rejectionMessage(err error) string {
	switch err {
	case ErrBoardNotFound:
		return "Board not found. Please check the code and try again."
	case ErrBoardInactive:
		return "This board has been closed"
	case ErrBoardFull:
		return fmt.Sprintf("Board is full (%d users maximum)", defaultMaxUsers)
	case ErrUserBanned:
		return "You are banned from this board"
	case ErrUserTimedOut:
		return "You are timed out from this board"
	case ErrServerBusy:
		return "Server is busy, try again shortly"
	default:
		return "Unable to join board"
	}
}

// rejectConn sends an error payload followed by a policy-violation close
// frame, then drops the connection.
func rejectConn(conn *websocket.Conn, message string) {
	deadline := time.Now().Add(writeWait)
	conn.SetWriteDeadline(deadline)
	conn.WriteJSON(newError(message))
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message), deadline)
	conn.Close()
}
