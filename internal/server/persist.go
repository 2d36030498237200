package server

import (
	"time"

	"github.com/go-drawboard/drawboard/internal/database"
	"github.com/go-drawboard/drawboard/internal/types"
)

// Write-behind persistence. These helpers translate board state into
// repository records and log failures; they never fail the in-memory
// operation that triggered them.

func (b *Board) persistBoard() {
	if err := b.bs.db.SaveBoard(database.Board{
		BoardId:      b.id,
		AdminId:      b.adminId,
		MaxUsers:     b.maxUsers,
		MaxObjects:   b.maxObjects,
		IsActive:     b.active,
		CreatedAt:    b.createdAt,
		LastActivity: b.lastActivity,
	}); err != nil {
		b.log.WithError(err).Error("failed persisting board")
	}
}

func (b *Board) persistUser(u *types.User) {
	if err := b.bs.db.SaveUser(database.User{
		UserId:      u.ID,
		BoardId:     b.id,
		Nickname:    u.Nickname,
		Role:        u.Role,
		Color:       u.Color,
		Connected:   u.Connected,
		ConnectedAt: time.Now(),
	}); err != nil {
		b.log.WithError(err).Error("failed persisting user")
	}
}

func (b *Board) persistToken(userId, token string) {
	if err := b.bs.db.SaveToken(database.Token{
		Token:     token,
		UserId:    userId,
		BoardId:   b.id,
		CreatedAt: time.Now(),
	}); err != nil {
		b.log.WithError(err).Error("failed persisting token")
	}
}

func (b *Board) persistStroke(s *types.Stroke) {
	if err := b.bs.db.SaveStroke(database.Stroke{
		StrokeId:  s.ID,
		BoardId:   b.id,
		UserId:    s.UserID,
		LayerId:   s.LayerID,
		BrushType: s.BrushType,
		Color:     s.Color,
		Width:     s.Width,
		CreatedAt: time.Now(),
	}); err != nil {
		b.log.WithError(err).Error("failed persisting stroke")
		return
	}
	if len(s.Points) > 0 {
		b.persistStrokePoints(s.ID, s.Points)
	}
}

func (b *Board) persistStrokePoints(strokeId string, points []types.Point) {
	records := make([]database.StrokePoint, len(points))
	for i, p := range points {
		records[i] = database.StrokePoint{
			StrokeId:  strokeId,
			X:         p.X,
			Y:         p.Y,
			Pressure:  p.Pressure,
			Timestamp: p.Timestamp,
		}
	}
	if err := b.bs.db.AppendStrokePoints(strokeId, records); err != nil {
		b.log.WithError(err).Error("failed persisting stroke points")
	}
}

func (b *Board) persistShape(s *types.Shape) {
	if err := b.bs.db.SaveShape(database.Shape{
		ShapeId:     s.ID,
		BoardId:     b.id,
		UserId:      s.UserID,
		LayerId:     s.LayerID,
		Type:        s.Type,
		StartX:      s.StartX,
		StartY:      s.StartY,
		EndX:        s.EndX,
		EndY:        s.EndY,
		Color:       s.Color,
		StrokeWidth: s.StrokeWidth,
		CreatedAt:   time.Now(),
	}); err != nil {
		b.log.WithError(err).Error("failed persisting shape")
	}
}

func (b *Board) persistText(t *types.TextObject) {
	if err := b.bs.db.SaveText(database.Text{
		TextId:     t.ID,
		BoardId:    b.id,
		UserId:     t.UserID,
		LayerId:    t.LayerID,
		Text:       t.Text,
		X:          t.X,
		Y:          t.Y,
		Color:      t.Color,
		FontSize:   t.FontSize,
		FontFamily: t.FontFamily,
		CreatedAt:  time.Now(),
	}); err != nil {
		b.log.WithError(err).Error("failed persisting text")
	}
}
