package database

import (
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) SaveBoard(b Board) error {
	args := m.Called(b)
	return args.Error(0)
}
func (m *MockRepository) TouchBoard(boardId string) error {
	args := m.Called(boardId)
	return args.Error(0)
}
func (m *MockRepository) DeactivateBoard(boardId string) error {
	args := m.Called(boardId)
	return args.Error(0)
}
func (m *MockRepository) SaveUser(u User) error {
	args := m.Called(u)
	return args.Error(0)
}
func (m *MockRepository) SetUserConnected(boardId, userId string, connected bool) error {
	args := m.Called(boardId, userId, connected)
	return args.Error(0)
}
func (m *MockRepository) SaveStroke(s Stroke) error {
	args := m.Called(s)
	return args.Error(0)
}
func (m *MockRepository) AppendStrokePoints(strokeId string, points []StrokePoint) error {
	args := m.Called(strokeId, points)
	return args.Error(0)
}
func (m *MockRepository) SaveShape(s Shape) error {
	args := m.Called(s)
	return args.Error(0)
}
func (m *MockRepository) SaveText(t Text) error {
	args := m.Called(t)
	return args.Error(0)
}
func (m *MockRepository) DeleteObject(boardId, objectId string) error {
	args := m.Called(boardId, objectId)
	return args.Error(0)
}
func (m *MockRepository) SaveToken(t Token) error {
	args := m.Called(t)
	return args.Error(0)
}
func (m *MockRepository) RevokeToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}
func (m *MockRepository) RevokeUserTokens(boardId, userId string) error {
	args := m.Called(boardId, userId)
	return args.Error(0)
}
