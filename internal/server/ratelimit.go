package server

import "time"

const (
	rateLimitBudget = 1000
	rateLimitWindow = 60 * time.Second

	actionDraw   = "draw"
	actionCursor = "cursor"
)

type rateKey struct {
	userId string
	action string
}

type rateWindow struct {
	points  int
	started time.Time
}

// rateLimiter tracks per-user, per-action point budgets over a fixed window.
// It is owned by a single board goroutine and needs no locking.
type rateLimiter struct {
	budget  int
	window  time.Duration
	now     func() time.Time
	windows map[rateKey]*rateWindow
}

func newRateLimiter(budget int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		budget:  budget,
		window:  window,
		now:     time.Now,
		windows: make(map[rateKey]*rateWindow),
	}
}

// consume charges points against the user's budget for the given action and
// reports whether the charge fit. A charge that would overrun the budget is
// rejected without being recorded.
func (rl *rateLimiter) consume(userId, action string, points int) bool {
	key := rateKey{userId: userId, action: action}
	now := rl.now()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.started) >= rl.window {
		w = &rateWindow{started: now}
		rl.windows[key] = w
	}

	if w.points+points > rl.budget {
		return false
	}

	w.points += points
	return true
}

// forget drops all windows for a user, freeing their budget state after the
// user is removed from the board.
func (rl *rateLimiter) forget(userId string) {
	delete(rl.windows, rateKey{userId: userId, action: actionDraw})
	delete(rl.windows, rateKey{userId: userId, action: actionCursor})
}
