package database

import "time"

type Board struct {
	BoardId      string
	AdminId      string
	MaxUsers     int
	MaxObjects   int
	IsActive     bool
	CreatedAt    time.Time
	LastActivity time.Time
}

type User struct {
	UserId      string
	BoardId     string
	Nickname    string
	Role        string
	Color       string
	Connected   bool
	ConnectedAt time.Time
}

type Stroke struct {
	StrokeId  string
	BoardId   string
	UserId    string
	LayerId   string
	BrushType string
	Color     string
	Width     float64
	CreatedAt time.Time
}

type StrokePoint struct {
	StrokeId  string
	X         float64
	Y         float64
	Pressure  float64
	Timestamp float64
}

type Shape struct {
	ShapeId     string
	BoardId     string
	UserId      string
	LayerId     string
	Type        string
	StartX      float64
	StartY      float64
	EndX        float64
	EndY        float64
	Color       string
	StrokeWidth float64
	CreatedAt   time.Time
}

type Text struct {
	TextId     string
	BoardId    string
	UserId     string
	LayerId    string
	Text       string
	X          float64
	Y          float64
	Color      string
	FontSize   float64
	FontFamily string
	CreatedAt  time.Time
}

type Token struct {
	Token     string
	UserId    string
	BoardId   string
	CreatedAt time.Time
	ExpiresAt *time.Time
	IsRevoked bool
}
