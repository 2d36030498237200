package server

import (
	"time"

	"github.com/go-drawboard/drawboard/internal/types"
)

// Inbound event types.
const (
	EventStrokeStart     = "stroke_start"
	EventStrokePoints    = "stroke_points"
	EventStrokeEnd       = "stroke_end"
	EventShapeCreate     = "shape_create"
	EventTextCreate      = "text_create"
	EventErasePath       = "erase_path"
	EventCursorUpdate    = "cursor_update"
	EventAdminKick       = "admin_kick"
	EventAdminBan        = "admin_ban"
	EventAdminEndSession = "admin_end_session"
)

// Outbound message types.
const (
	MsgWelcome          = "welcome"
	MsgUserJoined       = "user_joined"
	MsgUserLeft         = "user_left"
	MsgError            = "error"
	MsgRateLimitWarning = "rate_limit_warning"
	MsgKicked           = "kicked"
	MsgUserKicked       = "user_kicked"
	MsgUserBanned       = "user_banned"
	MsgSessionEnded     = "session_ended"
	MsgAdminReconnected = "admin_reconnected"
	MsgAdminCountdown   = "admin_disconnect_countdown"
	MsgObjectDelete     = "object_delete"
)

// Event is the inbound envelope. Exactly which fields are meaningful depends
// on Type; unknown fields are ignored by the JSON decoder.
type Event struct {
	Type     string             `json:"type"`
	StrokeID string             `json:"stroke_id,omitempty"`
	Stroke   *types.StrokeStyle `json:"stroke,omitempty"`
	Points   []types.Point      `json:"points,omitempty"`
	Shape    *types.ShapeAttrs  `json:"shape,omitempty"`
	Text     *types.TextAttrs   `json:"text,omitempty"`
	X        float64            `json:"x,omitempty"`
	Y        float64            `json:"y,omitempty"`
	Tool     string             `json:"tool,omitempty"`
	UserID   string             `json:"user_id,omitempty"`

	client *Client
}

type baseMessage struct {
	Type      string  `json:"type"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

func base(msgType string) baseMessage {
	return baseMessage{Type: msgType, Timestamp: nowUnix()}
}

// nowUnix returns the current time as unix seconds, the timestamp format used
// on the wire.
func nowUnix() float64 {
	return float64(time.Now().UnixMilli()) / 1000
}

// WelcomeMessage is the bootstrap payload for a newly attached connection.
type WelcomeMessage struct {
	baseMessage
	BoardID    string            `json:"board_id"`
	UserID     string            `json:"user_id"`
	Token      string            `json:"token"`
	Nickname   string            `json:"nickname"`
	Role       string            `json:"role"`
	BoardState *types.BoardState `json:"board_state"`
}

type UserJoinedMessage struct {
	baseMessage
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func newUserJoined(user *types.User) *UserJoinedMessage {
	return &UserJoinedMessage{
		baseMessage: base(MsgUserJoined),
		UserID:      user.ID,
		Nickname:    user.Nickname,
		Role:        user.Role,
	}
}

type UserLeftMessage struct {
	baseMessage
	UserID string `json:"user_id"`
}

func newUserLeft(userId string) *UserLeftMessage {
	return &UserLeftMessage{baseMessage: base(MsgUserLeft), UserID: userId}
}

type ErrorMessage struct {
	baseMessage
	Message string `json:"message"`
}

func newError(msg string) *ErrorMessage {
	return &ErrorMessage{baseMessage: base(MsgError), Message: msg}
}

type RateLimitWarningMessage struct {
	baseMessage
	Message string `json:"message"`
}

func newRateLimitWarning(msg string) *RateLimitWarningMessage {
	return &RateLimitWarningMessage{baseMessage: base(MsgRateLimitWarning), Message: msg}
}

type KickedMessage struct {
	baseMessage
	Reason  string `json:"reason"`
	AdminID string `json:"admin_id"`
}

func newKicked(adminId string) *KickedMessage {
	return &KickedMessage{baseMessage: base(MsgKicked), Reason: "kicked_by_admin", AdminID: adminId}
}

type UserKickedMessage struct {
	baseMessage
	UserID  string `json:"user_id"`
	AdminID string `json:"admin_id"`
}

func newUserKicked(targetId, adminId string) *UserKickedMessage {
	return &UserKickedMessage{baseMessage: base(MsgUserKicked), UserID: targetId, AdminID: adminId}
}

type UserBannedMessage struct {
	baseMessage
	UserID  string `json:"user_id"`
	AdminID string `json:"admin_id"`
}

func newUserBanned(targetId, adminId string) *UserBannedMessage {
	return &UserBannedMessage{baseMessage: base(MsgUserBanned), UserID: targetId, AdminID: adminId}
}

type SessionEndedMessage struct {
	baseMessage
	Reason  string `json:"reason"`
	AdminID string `json:"admin_id,omitempty"`
}

func newSessionEnded(reason, adminId string) *SessionEndedMessage {
	return &SessionEndedMessage{baseMessage: base(MsgSessionEnded), Reason: reason, AdminID: adminId}
}

type AdminReconnectedMessage struct {
	baseMessage
}

func newAdminReconnected() *AdminReconnectedMessage {
	return &AdminReconnectedMessage{baseMessage: base(MsgAdminReconnected)}
}

type AdminCountdownMessage struct {
	baseMessage
	SecondsRemaining int `json:"seconds_remaining"`
}

func newAdminCountdown(seconds int) *AdminCountdownMessage {
	return &AdminCountdownMessage{baseMessage: base(MsgAdminCountdown), SecondsRemaining: seconds}
}

type ObjectDeleteMessage struct {
	baseMessage
	ObjectID string `json:"object_id"`
	UserID   string `json:"user_id"`
}

func newObjectDelete(objectId, userId string) *ObjectDeleteMessage {
	return &ObjectDeleteMessage{baseMessage: base(MsgObjectDelete), ObjectID: objectId, UserID: userId}
}

type StrokeStartMessage struct {
	baseMessage
	StrokeID string             `json:"stroke_id"`
	UserID   string             `json:"user_id"`
	Stroke   *types.StrokeStyle `json:"stroke"`
}

func newStrokeStart(strokeId, userId string, style *types.StrokeStyle) *StrokeStartMessage {
	return &StrokeStartMessage{
		baseMessage: base(EventStrokeStart),
		StrokeID:    strokeId,
		UserID:      userId,
		Stroke:      style,
	}
}

type StrokePointsMessage struct {
	baseMessage
	StrokeID string        `json:"stroke_id"`
	UserID   string        `json:"user_id"`
	Points   []types.Point `json:"points"`
}

func newStrokePoints(strokeId, userId string, points []types.Point) *StrokePointsMessage {
	return &StrokePointsMessage{
		baseMessage: base(EventStrokePoints),
		StrokeID:    strokeId,
		UserID:      userId,
		Points:      points,
	}
}

type StrokeEndMessage struct {
	baseMessage
	StrokeID string `json:"stroke_id"`
	UserID   string `json:"user_id"`
}

func newStrokeEnd(strokeId, userId string) *StrokeEndMessage {
	return &StrokeEndMessage{baseMessage: base(EventStrokeEnd), StrokeID: strokeId, UserID: userId}
}

type ShapeCreateMessage struct {
	baseMessage
	ShapeID string            `json:"shape_id"`
	UserID  string            `json:"user_id"`
	Shape   *types.ShapeAttrs `json:"shape"`
}

func newShapeCreate(shapeId, userId string, attrs *types.ShapeAttrs) *ShapeCreateMessage {
	return &ShapeCreateMessage{
		baseMessage: base(EventShapeCreate),
		ShapeID:     shapeId,
		UserID:      userId,
		Shape:       attrs,
	}
}

type TextCreateMessage struct {
	baseMessage
	TextID string           `json:"text_id"`
	UserID string           `json:"user_id"`
	Text   *types.TextAttrs `json:"text"`
}

func newTextCreate(textId, userId string, attrs *types.TextAttrs) *TextCreateMessage {
	return &TextCreateMessage{
		baseMessage: base(EventTextCreate),
		TextID:      textId,
		UserID:      userId,
		Text:        attrs,
	}
}

type CursorUpdateMessage struct {
	baseMessage
	UserID string  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Tool   string  `json:"tool"`
}

func newCursorUpdate(userId string, x, y float64, tool string) *CursorUpdateMessage {
	return &CursorUpdateMessage{
		baseMessage: base(EventCursorUpdate),
		UserID:      userId,
		X:           x,
		Y:           y,
		Tool:        tool,
	}
}
