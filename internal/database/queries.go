package database

import (
	"time"
)

func (db *PgRepository) SaveBoard(b Board) error {
	_, err := db.conn.Exec(
		"INSERT INTO boards (board_id, admin_id, max_users, max_objects, is_active, created_at, last_activity) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"ON CONFLICT (board_id) DO UPDATE SET is_active = EXCLUDED.is_active, last_activity = EXCLUDED.last_activity",
		b.BoardId,
		b.AdminId,
		b.MaxUsers,
		b.MaxObjects,
		b.IsActive,
		b.CreatedAt,
		b.LastActivity,
	)
	return err
}

func (db *PgRepository) TouchBoard(boardId string) error {
	_, err := db.conn.Exec(
		"UPDATE boards SET last_activity = $2 WHERE board_id = $1",
		boardId,
		time.Now().UTC(),
	)
	return err
}

func (db *PgRepository) DeactivateBoard(boardId string) error {
	_, err := db.conn.Exec(
		"UPDATE boards SET is_active = FALSE WHERE board_id = $1",
		boardId,
	)
	return err
}

func (db *PgRepository) SaveUser(u User) error {
	_, err := db.conn.Exec(
		"INSERT INTO board_users (user_id, board_id, nickname, role, color, connected, connected_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"ON CONFLICT (user_id, board_id) DO UPDATE SET connected = EXCLUDED.connected, connected_at = EXCLUDED.connected_at",
		u.UserId,
		u.BoardId,
		u.Nickname,
		u.Role,
		u.Color,
		u.Connected,
		u.ConnectedAt,
	)
	return err
}

func (db *PgRepository) SetUserConnected(boardId, userId string, connected bool) error {
	_, err := db.conn.Exec(
		"UPDATE board_users SET connected = $3 WHERE board_id = $1 AND user_id = $2",
		boardId,
		userId,
		connected,
	)
	return err
}

func (db *PgRepository) SaveStroke(s Stroke) error {
	_, err := db.conn.Exec(
		"INSERT INTO strokes (stroke_id, board_id, user_id, layer_id, brush_type, color, width, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (stroke_id) DO NOTHING",
		s.StrokeId,
		s.BoardId,
		s.UserId,
		s.LayerId,
		s.BrushType,
		s.Color,
		s.Width,
		s.CreatedAt,
	)
	return err
}

func (db *PgRepository) AppendStrokePoints(strokeId string, points []StrokePoint) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	row := tx.QueryRow(
		"SELECT COALESCE(MAX(point_order) + 1, 0) FROM stroke_points WHERE stroke_id = $1",
		strokeId,
	)
	if err := row.Scan(&next); err != nil {
		return err
	}

	for i, p := range points {
		if _, err := tx.Exec(
			"INSERT INTO stroke_points (stroke_id, point_order, x, y, pressure, ts) "+
				"VALUES ($1, $2, $3, $4, $5, $6)",
			strokeId,
			next+i,
			p.X,
			p.Y,
			p.Pressure,
			p.Timestamp,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (db *PgRepository) SaveShape(s Shape) error {
	_, err := db.conn.Exec(
		"INSERT INTO shapes (shape_id, board_id, user_id, layer_id, shape_type, start_x, start_y, end_x, end_y, color, stroke_width, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) ON CONFLICT (shape_id) DO NOTHING",
		s.ShapeId,
		s.BoardId,
		s.UserId,
		s.LayerId,
		s.Type,
		s.StartX,
		s.StartY,
		s.EndX,
		s.EndY,
		s.Color,
		s.StrokeWidth,
		s.CreatedAt,
	)
	return err
}

func (db *PgRepository) SaveText(t Text) error {
	_, err := db.conn.Exec(
		"INSERT INTO texts (text_id, board_id, user_id, layer_id, content, x, y, color, font_size, font_family, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT (text_id) DO NOTHING",
		t.TextId,
		t.BoardId,
		t.UserId,
		t.LayerId,
		t.Text,
		t.X,
		t.Y,
		t.Color,
		t.FontSize,
		t.FontFamily,
		t.CreatedAt,
	)
	return err
}

// DeleteObject removes an object from whichever table holds it. Stroke points
// are removed by the ON DELETE CASCADE on stroke_points.
func (db *PgRepository) DeleteObject(boardId, objectId string) error {
	for _, q := range []string{
		"DELETE FROM strokes WHERE board_id = $1 AND stroke_id = $2",
		"DELETE FROM shapes WHERE board_id = $1 AND shape_id = $2",
		"DELETE FROM texts WHERE board_id = $1 AND text_id = $2",
	} {
		if _, err := db.conn.Exec(q, boardId, objectId); err != nil {
			return err
		}
	}
	return nil
}

func (db *PgRepository) SaveToken(t Token) error {
	_, err := db.conn.Exec(
		"INSERT INTO tokens (token, user_id, board_id, created_at, expires_at, is_revoked) "+
			"VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (token) DO NOTHING",
		t.Token,
		t.UserId,
		t.BoardId,
		t.CreatedAt,
		t.ExpiresAt,
		t.IsRevoked,
	)
	return err
}

func (db *PgRepository) RevokeToken(token string) error {
	_, err := db.conn.Exec(
		"UPDATE tokens SET is_revoked = TRUE WHERE token = $1",
		token,
	)
	return err
}

func (db *PgRepository) RevokeUserTokens(boardId, userId string) error {
	_, err := db.conn.Exec(
		"UPDATE tokens SET is_revoked = TRUE WHERE board_id = $1 AND user_id = $2",
		boardId,
		userId,
	)
	return err
}
