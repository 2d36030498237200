package types

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Point is a single sampled point of a stroke or an eraser path.
// Timestamps on the wire are unix seconds, matching client clocks.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Pressure  float64 `json:"pressure,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// StrokeStyle is the client-supplied portion of a stroke.
type StrokeStyle struct {
	LayerID   string  `json:"layer_id"`
	BrushType string  `json:"brush_type"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
}

type Stroke struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	StrokeStyle
	Points    []Point `json:"points"`
	CreatedAt float64 `json:"created_at"`
}

// ShapeAttrs is the client-supplied portion of a shape.
type ShapeAttrs struct {
	Type        string  `json:"type"`
	StartX      float64 `json:"start_x"`
	StartY      float64 `json:"start_y"`
	EndX        float64 `json:"end_x"`
	EndY        float64 `json:"end_y"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"stroke_width"`
	LayerID     string  `json:"layer_id"`
}

type Shape struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	ShapeAttrs
	CreatedAt float64 `json:"created_at"`
}

// TextAttrs is the client-supplied portion of a text object.
type TextAttrs struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Color      string  `json:"color"`
	LayerID    string  `json:"layer_id"`
	FontSize   float64 `json:"font_size"`
	FontFamily string  `json:"font_family"`
}

type TextObject struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	TextAttrs
	CreatedAt float64 `json:"created_at"`
}

type Layer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
	Order  int    `json:"order"`
}

type User struct {
	ID          string  `json:"id"`
	Nickname    string  `json:"nickname"`
	Role        string  `json:"role"`
	CursorX     float64 `json:"cursor_x"`
	CursorY     float64 `json:"cursor_y"`
	ActiveTool  string  `json:"active_tool"`
	Color       string  `json:"color"`
	Connected   bool    `json:"connected"`
	ConnectedAt float64 `json:"connected_at"`
}

// BoardState is the full serializable board snapshot sent to new joiners.
type BoardState struct {
	BoardID             string       `json:"board_id"`
	Users               []User       `json:"users"`
	Strokes             []Stroke     `json:"strokes"`
	Shapes              []Shape      `json:"shapes"`
	Texts               []TextObject `json:"texts"`
	Layers              []Layer      `json:"layers"`
	ObjectCount         int          `json:"object_count"`
	MaxObjects          int          `json:"max_objects"`
	MaxUsers            int          `json:"max_users"`
	AdminOnline         bool         `json:"admin_online"`
	AdminDisconnectedAt float64      `json:"admin_disconnected_at,omitempty"`
	CreatedAt           float64      `json:"created_at"`
}
