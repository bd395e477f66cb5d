package inmemdb

import (
	"sync"
	"time"
)

// RevocationList remembers signed-out token ids until the tokens would have expired anyway.
type RevocationList struct {
	mutex   sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
	now     func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks the token id as signed out.
func (rl *RevocationList) Revoke(jti string, expiresAt time.Time) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.purge()
	rl.revoked[jti] = expiresAt
}

func (rl *RevocationList) IsRevoked(jti string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	_, ok := rl.revoked[jti]
	return ok
}

// purge drops ids of tokens that have expired. Callers hold the lock.
func (rl *RevocationList) purge() {
	now := rl.now()
	for jti, exp := range rl.revoked {
		if now.After(exp) {
			delete(rl.revoked, jti)
		}
	}
}
