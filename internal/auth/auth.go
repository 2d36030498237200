// Package auth owns session identity: opaque user ids, per-board session
// tokens and their revocation records. Boards and users are referenced by id
// only; no board state lives here.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

const (
	userIdClaim  = "user-id"
	boardIdClaim = "board-id"
	tokenIdClaim = "jti"
	expClaim     = "exp"
)

// NewUserID returns an opaque, unguessable user identifier.
func NewUserID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type tokenRecord struct {
	userId    string
	boardId   string
	createdAt time.Time
	expiresAt time.Time
	revoked   bool
}

// TokenManager issues and validates per-user session tokens. Tokens are HS256
// JWTs, but the server-side record keyed by token id is the authority: a token
// whose id is unknown never validates, and revocation is permanent.
type TokenManager struct {
	signingKey []byte
	now        func() time.Time

	mu      sync.Mutex
	records map[string]*tokenRecord
	// byUser indexes token ids by boardId+userId so a ban can revoke
	// every token a user holds on that board.
	byUser map[string][]string
}

func NewTokenManager(signingKey []byte) *TokenManager {
	return &TokenManager{
		signingKey: signingKey,
		now:        time.Now,
		records:    make(map[string]*tokenRecord),
		byUser:     make(map[string][]string),
	}
}

func userKey(boardId, userId string) string {
	return boardId + "/" + userId
}

// Issue mints a session token binding userId to boardId. A zero ttl means the
// token never expires on its own; it remains valid until revoked or until the
// board is released.
func (tm *TokenManager) Issue(userId, boardId string, ttl time.Duration) (string, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	tokenId := hex.EncodeToString(idBytes)

	claims := jwt.MapClaims{
		userIdClaim:  userId,
		boardIdClaim: boardId,
		tokenIdClaim: tokenId,
	}

	rec := &tokenRecord{
		userId:    userId,
		boardId:   boardId,
		createdAt: tm.now(),
	}

	if ttl > 0 {
		rec.expiresAt = tm.now().Add(ttl)
		claims[expClaim] = rec.expiresAt.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	tm.mu.Lock()
	tm.records[tokenId] = rec
	key := userKey(boardId, userId)
	tm.byUser[key] = append(tm.byUser[key], tokenId)
	tm.mu.Unlock()

	return signed, nil
}

// Validate returns the user id bound to tokenString if the token is known,
// unrevoked, unexpired and issued for boardId. A revoked token fails with
// ErrTokenRevoked but still resolves its user id, so callers can decide
// whether the revocation was a ban or a routine token rotation.
func (tm *TokenManager) Validate(tokenString, boardId string) (string, error) {
	rec, err := tm.lookup(tokenString)
	if err != nil {
		return "", err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if rec.revoked {
		return rec.userId, ErrTokenRevoked
	}
	if rec.boardId != boardId {
		return "", ErrInvalidToken
	}
	if !rec.expiresAt.IsZero() && tm.now().After(rec.expiresAt) {
		return "", ErrInvalidToken
	}

	return rec.userId, nil
}

// Revoke permanently invalidates a single token. Revoking an unknown or
// already-revoked token is a no-op.
func (tm *TokenManager) Revoke(tokenString string) {
	rec, err := tm.lookup(tokenString)
	if err != nil {
		return
	}

	tm.mu.Lock()
	rec.revoked = true
	tm.mu.Unlock()
}

// RevokeUser revokes every token issued to userId on boardId. This is the ban
// mechanism: any previously issued token permanently fails validation.
func (tm *TokenManager) RevokeUser(boardId, userId string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for _, tokenId := range tm.byUser[userKey(boardId, userId)] {
		if rec, ok := tm.records[tokenId]; ok {
			rec.revoked = true
		}
	}
}

// ReleaseBoard drops every token record for boardId. Called when a board is
// deactivated so records do not outlive the session they belong to.
func (tm *TokenManager) ReleaseBoard(boardId string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for tokenId, rec := range tm.records {
		if rec.boardId == boardId {
			delete(tm.records, tokenId)
			delete(tm.byUser, userKey(boardId, rec.userId))
		}
	}
}

// lookup verifies the token signature and resolves its server-side record.
// Claims are never trusted on their own: a token whose id has no record is
// invalid regardless of signature.
func (tm *TokenManager) lookup(tokenString string) (*tokenRecord, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tokenId, ok := claims[tokenIdClaim].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	tm.mu.Lock()
	rec, ok := tm.records[tokenId]
	tm.mu.Unlock()
	if !ok {
		return nil, ErrInvalidToken
	}

	return rec, nil
}
