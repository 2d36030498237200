package database

// Repository is the durable-storage collaborator. It is a write-behind
// recovery log: the in-memory board aggregate is the only capacity authority
// during normal operation, and repository failures never fail the in-memory
// operation that triggered them.
type Repository interface {
	Ping() error
	Close() error

	SaveBoard(b Board) error
	TouchBoard(boardId string) error
	DeactivateBoard(boardId string) error

	SaveUser(u User) error
	SetUserConnected(boardId, userId string, connected bool) error

	SaveStroke(s Stroke) error
	AppendStrokePoints(strokeId string, points []StrokePoint) error
	SaveShape(s Shape) error
	SaveText(t Text) error
	DeleteObject(boardId, objectId string) error

	SaveToken(t Token) error
	RevokeToken(token string) error
	RevokeUserTokens(boardId, userId string) error
}
