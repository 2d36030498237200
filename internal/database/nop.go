package database

// NopRepository discards every write. Used when the server runs without a
// configured DSN; board state then lives only in memory for the lifetime of
// the process.
type NopRepository struct{}

func NewNopRepository() *NopRepository { return &NopRepository{} }

func (*NopRepository) Ping() error  { return nil }
func (*NopRepository) Close() error { return nil }

func (*NopRepository) SaveBoard(Board) error               { return nil }
func (*NopRepository) TouchBoard(string) error             { return nil }
func (*NopRepository) DeactivateBoard(string) error        { return nil }
func (*NopRepository) SaveUser(User) error                 { return nil }
func (*NopRepository) SetUserConnected(string, string, bool) error {
	return nil
}
func (*NopRepository) SaveStroke(Stroke) error                          { return nil }
func (*NopRepository) AppendStrokePoints(string, []StrokePoint) error   { return nil }
func (*NopRepository) SaveShape(Shape) error                            { return nil }
func (*NopRepository) SaveText(Text) error                              { return nil }
func (*NopRepository) DeleteObject(string, string) error                { return nil }
func (*NopRepository) SaveToken(Token) error                            { return nil }
func (*NopRepository) RevokeToken(string) error                         { return nil }
func (*NopRepository) RevokeUserTokens(string, string) error            { return nil }
