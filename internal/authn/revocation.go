package authn

import (
	"container/heap"
	"sync"
	"time"
)

// revocationEntry is either a blanket per-user cutoff (tokenID empty: every
// token issued at-or-before revokedAt is invalid — the admin-revoke and
// password-change case) or a single revoked token_id (the refresh/invalidate
// case), which stays revoked until its own expiresAt regardless of issuedAt.
type revocationEntry struct {
	tokenID   string
	revokedAt time.Time
	expiresAt time.Time // when this entry itself can be garbage collected
}

// userHeap is a min-heap ordered by expiresAt so the ledger can cheaply evict
// entries whose underlying tokens would have expired anyway.
type userHeap []*revocationEntry

func (h userHeap) Len() int            { return len(h) }
func (h userHeap) Less(i, j int) bool  { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h userHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *userHeap) Push(x interface{}) { *h = append(*h, x.(*revocationEntry)) }
func (h *userHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RevocationLedger tracks, per user, a time-ordered priority queue of
// (token_id, expiry) entries (spec §3) plus any blanket revocation cutoff
// issued by an admin or a password change. Each user's entries live in their
// own min-heap so that sweeping expired entries for one user never blocks
// lookups for another — the same per-key isolation idiom as the teacher's
// idempotency store, generalized from a flat LRU to a per-user heap.
type RevocationLedger struct {
	mu     sync.Mutex
	byUser map[string]*userHeap
}

// NewRevocationLedger creates an empty ledger.
func NewRevocationLedger() *RevocationLedger {
	return &RevocationLedger{byUser: make(map[string]*userHeap)}
}

// Revoke invalidates every token issued to userID at or before now (blanket
// revocation), scheduling the marker for cleanup once tokenLifetime has
// elapsed. Reserved for admin-initiated revoke-for-user; a caller ending
// their own session should use RevokeToken instead, so other sessions for
// the same user survive.
func (l *RevocationLedger) Revoke(userID string, tokenLifetime time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.push(userID, &revocationEntry{revokedAt: now, expiresAt: now.Add(tokenLifetime)})
}

// RevokeToken invalidates a single token_id for userID, purging the entry
// once expiresAt (the token's own original expiry) has passed. Used by
// refresh (revoking the token being replaced) and invalidate (revoking only
// the current session rather than every device).
func (l *RevocationLedger) RevokeToken(userID, tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.push(userID, &revocationEntry{tokenID: tokenID, revokedAt: time.Now(), expiresAt: expiresAt})
}

// push inserts entry into userID's heap and sweeps expired entries. Callers
// must hold l.mu.
func (l *RevocationLedger) push(userID string, entry *revocationEntry) {
	h, ok := l.byUser[userID]
	if !ok {
		h = &userHeap{}
		heap.Init(h)
		l.byUser[userID] = h
	}
	heap.Push(h, entry)
	l.sweep(userID, h, time.Now())
}

// IsRevoked reports whether a token for userID — issued at issuedAt, carrying
// tokenID — has been revoked, either individually (RevokeToken) or by a
// blanket cutoff (Revoke) that postdates issuedAt.
func (l *RevocationLedger) IsRevoked(userID, tokenID string, issuedAt time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.byUser[userID]
	if !ok || h.Len() == 0 {
		return false
	}
	now := time.Now()
	l.sweep(userID, h, now)
	for _, entry := range *h {
		if entry.tokenID != "" {
			if tokenID != "" && entry.tokenID == tokenID {
				return true
			}
			continue
		}
		if issuedAt.Before(entry.revokedAt) || issuedAt.Equal(entry.revokedAt) {
			return true
		}
	}
	return false
}

// sweep evicts ledger entries whose underlying tokens would already have
// expired on their own, bounding the ledger's memory to active sessions.
// Callers must hold l.mu.
func (l *RevocationLedger) sweep(userID string, h *userHeap, now time.Time) {
	for h.Len() > 0 && (*h)[0].expiresAt.Before(now) {
		heap.Pop(h)
	}
	if h.Len() == 0 {
		delete(l.byUser, userID)
	}
}
