package server

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"

	"github.com/go-drawboard/drawboard/internal/geometry"
	"github.com/go-drawboard/drawboard/internal/stats"
	"github.com/go-drawboard/drawboard/internal/types"
)

// eraserWidth is the hit-test radius for erase paths, in canvas units.
const eraserWidth = 20.0

// dispatch routes one inbound event. Events from connections that are no
// longer the current client for their user are dropped, which closes the
// window around superseded and kicked connections.
func (b *Board) dispatch(ev *Event) {
	if !b.active {
		return
	}

	c := ev.client
	if b.clients[c.userId] != c {
		return
	}
	user, ok := b.users[c.userId]
	if !ok {
		return
	}

	b.bs.stats.Incr(stats.EventsDispatched)
	b.lastActivity = time.Now()

	switch ev.Type {
	case EventStrokeStart:
		b.handleStrokeStart(ev, c)
	case EventStrokePoints:
		b.handleStrokePoints(ev, c)
	case EventStrokeEnd:
		b.broadcast(newStrokeEnd(ev.StrokeID, c.userId), c)
	case EventShapeCreate:
		b.handleShapeCreate(ev, c)
	case EventTextCreate:
		b.handleTextCreate(ev, c)
	case EventErasePath:
		b.handleErasePath(ev, c)
	case EventCursorUpdate:
		b.handleCursorUpdate(ev, c, user)
	case EventAdminKick:
		if user.Role == types.RoleAdmin {
			b.handleKick(ev.UserID, c.userId)
		}
	case EventAdminBan:
		if user.Role == types.RoleAdmin {
			b.handleBan(ev.UserID, c.userId)
		}
	case EventAdminEndSession:
		if user.Role == types.RoleAdmin {
			b.endSession("ended_by_admin", c.userId)
		}
	default:
		b.log.WithFields(logrus.Fields{
			"board": b.id,
			"type":  ev.Type,
		}).Debug("ignoring unknown event type")
	}
}

func (b *Board) handleStrokeStart(ev *Event, c *Client) {
	if ev.StrokeID == "" || ev.Stroke == nil {
		return
	}

	style := *ev.Stroke
	if style.LayerID == "" {
		style.LayerID = defaultLayerId
	}
	stroke := &types.Stroke{
		ID:          ev.StrokeID,
		UserID:      c.userId,
		StrokeStyle: style,
		Points:      append([]types.Point(nil), ev.Points...),
		CreatedAt:   nowUnix(),
	}

	if err := b.addStroke(stroke); err != nil {
		c.queueMessage(newError(fmt.Sprintf("Object limit reached (%d maximum)", b.maxObjects)))
		return
	}

	b.persistStroke(stroke)
	b.broadcast(newStrokeStart(stroke.ID, c.userId, &style), c)
}

func (b *Board) handleStrokePoints(ev *Event, c *Client) {
	if ev.StrokeID == "" || len(ev.Points) == 0 {
		return
	}

	if !b.limiter.consume(c.userId, actionDraw, len(ev.Points)) {
		c.queueMessage(newRateLimitWarning("Rate limit exceeded, please slow down"))
		return
	}

	// Points for strokes this board never saw are dropped silently; the
	// stroke may have been erased mid-draw.
	if !b.appendStrokePoints(ev.StrokeID, ev.Points) {
		return
	}

	b.persistStrokePoints(ev.StrokeID, ev.Points)
	b.broadcast(newStrokePoints(ev.StrokeID, c.userId, ev.Points), c)
}

func (b *Board) handleShapeCreate(ev *Event, c *Client) {
	if ev.Shape == nil {
		return
	}

	id, err := shortid.Generate()
	if err != nil {
		b.log.WithError(err).Error("failed generating shape id")
		return
	}

	attrs := *ev.Shape
	if attrs.LayerID == "" {
		attrs.LayerID = defaultLayerId
	}
	shape := &types.Shape{
		ID:         "shape_" + id,
		UserID:     c.userId,
		ShapeAttrs: attrs,
		CreatedAt:  nowUnix(),
	}

	if err := b.addShape(shape); err != nil {
		c.queueMessage(newError(fmt.Sprintf("Object limit reached (%d maximum)", b.maxObjects)))
		return
	}

	b.persistShape(shape)
	// The id is server-generated, so the creator needs the broadcast too.
	b.broadcast(newShapeCreate(shape.ID, c.userId, &attrs), nil)
}

func (b *Board) handleTextCreate(ev *Event, c *Client) {
	if ev.Text == nil {
		return
	}

	id, err := shortid.Generate()
	if err != nil {
		b.log.WithError(err).Error("failed generating text id")
		return
	}

	attrs := *ev.Text
	if attrs.LayerID == "" {
		attrs.LayerID = defaultLayerId
	}
	text := &types.TextObject{
		ID:        "text_" + id,
		UserID:    c.userId,
		TextAttrs: attrs,
		CreatedAt: nowUnix(),
	}

	if err := b.addText(text); err != nil {
		c.queueMessage(newError(fmt.Sprintf("Object limit reached (%d maximum)", b.maxObjects)))
		return
	}

	b.persistText(text)
	b.broadcast(newTextCreate(text.ID, c.userId, &attrs), nil)
}

// handleErasePath hit-tests the eraser path against every object and removes
// whole objects it touches. Deletions are broadcast to all clients,
// including the eraser, so every canvas converges on the same state.
func (b *Board) handleErasePath(ev *Event, c *Client) {
	if len(ev.Points) == 0 {
		return
	}

	var hits []string
	for id, s := range b.strokes {
		if geometry.StrokeHit(s.Points, ev.Points, eraserWidth) {
			hits = append(hits, id)
		}
	}
	for id, s := range b.shapes {
		if b.shapeHit(&s.ShapeAttrs, ev.Points) {
			hits = append(hits, id)
		}
	}
	for id, t := range b.texts {
		if b.textHit(&t.TextAttrs, ev.Points) {
			hits = append(hits, id)
		}
	}

	for _, id := range hits {
		if b.deleteObject(id) {
			b.broadcast(newObjectDelete(id, c.userId), nil)
		}
	}
}

func (b *Board) shapeHit(attrs *types.ShapeAttrs, eraserPath []types.Point) bool {
	w := attrs.EndX - attrs.StartX
	h := attrs.EndY - attrs.StartY
	for _, p := range eraserPath {
		switch attrs.Type {
		case "circle":
			center := types.Point{X: attrs.StartX + w/2, Y: attrs.StartY + h/2}
			r := max(abs(w), abs(h)) / 2
			if geometry.PointInCircle(p, center, r+eraserWidth) {
				return true
			}
		case "line", "arrow":
			a := types.Point{X: attrs.StartX, Y: attrs.StartY}
			end := types.Point{X: attrs.EndX, Y: attrs.EndY}
			if geometry.PointNearSegment(p, a, end, eraserWidth) {
				return true
			}
		default:
			if geometry.PointInRect(p, attrs.StartX-signed(w, eraserWidth), attrs.StartY-signed(h, eraserWidth),
				w+2*signed(w, eraserWidth), h+2*signed(h, eraserWidth)) {
				return true
			}
		}
	}
	return false
}

func (b *Board) textHit(attrs *types.TextAttrs, eraserPath []types.Point) bool {
	// Text extent is approximated from font size and content length.
	w := attrs.FontSize * 0.6 * float64(len(attrs.Text))
	h := attrs.FontSize * 1.2
	for _, p := range eraserPath {
		if geometry.PointInRect(p, attrs.X-eraserWidth, attrs.Y-eraserWidth,
			w+2*eraserWidth, h+2*eraserWidth) {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// signed returns pad carrying the sign of extent, so rect padding grows the
// rectangle outward regardless of drag direction.
func signed(extent, pad float64) float64 {
	if extent < 0 {
		return -pad
	}
	return pad
}

func (b *Board) handleCursorUpdate(ev *Event, c *Client, user *types.User) {
	if !b.limiter.consume(c.userId, actionCursor, 1) {
		return
	}

	user.CursorX = ev.X
	user.CursorY = ev.Y
	if ev.Tool != "" {
		user.ActiveTool = ev.Tool
	}

	b.broadcast(newCursorUpdate(c.userId, ev.X, ev.Y, user.ActiveTool), c)
}

func (b *Board) handleKick(targetId, adminId string) {
	if targetId == "" || targetId == adminId {
		return
	}
	// Kicking a user who just disconnected still applies; the timeout
	// blocks an immediate rejoin either way.
	if _, ok := b.users[targetId]; !ok {
		return
	}

	b.timeouts[targetId] = time.Now().Add(kickTimeout)
	if target, ok := b.clients[targetId]; ok {
		target.queueMessage(newKicked(adminId))
		b.disconnectTarget(target)
	}
	b.broadcast(newUserKicked(targetId, adminId), nil)

	b.log.WithFields(logrus.Fields{
		"board": b.id,
		"user":  targetId,
		"admin": adminId,
	}).Info("user kicked")
}

func (b *Board) handleBan(targetId, adminId string) {
	if targetId == "" || targetId == adminId {
		return
	}

	b.banned[targetId] = true
	b.bs.tokens.RevokeUser(b.id, targetId)
	if err := b.bs.db.RevokeUserTokens(b.id, targetId); err != nil {
		b.log.WithError(err).Error("failed persisting token revocation")
	}

	if target, ok := b.clients[targetId]; ok {
		target.queueMessage(newKicked(adminId))
		b.disconnectTarget(target)
	}
	b.broadcast(newUserBanned(targetId, adminId), nil)

	b.log.WithFields(logrus.Fields{
		"board": b.id,
		"user":  targetId,
		"admin": adminId,
	}).Info("user banned")
}

// disconnectTarget removes a client immediately so the user_kicked or
// user_banned broadcast that follows does not reach it, then closes the
// connection. The later leave notification from its read pump is a no-op.
func (b *Board) disconnectTarget(target *Client) {
	delete(b.clients, target.userId)
	b.bs.stats.Decr(stats.ActiveConnections)
	if user, ok := b.users[target.userId]; ok {
		user.Connected = false
	}
	if err := b.bs.db.SetUserConnected(b.id, target.userId, false); err != nil {
		b.log.WithError(err).Error("failed persisting user state")
	}
	b.limiter.forget(target.userId)
	target.terminate(websocket.ClosePolicyViolation, "removed by admin")
}
