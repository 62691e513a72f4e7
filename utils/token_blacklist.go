package utils

import (
	"context"
	"sync"
	"time"
)

const blacklistPrefix = "board:jwt:blacklist:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// BlacklistToken revokes a token id until expiresAt. Redis is used when enabled, process memory otherwise.
func BlacklistToken(jti string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
			Sugar.Warnf("blacklist token in redis failed jti=%s err=%v", jti, err)
		} else {
			return
		}
	}
	revokedMu.Lock()
	pruneRevokedLocked(time.Now())
	revoked[jti] = expiresAt
	revokedMu.Unlock()
}

// IsTokenBlacklisted reports whether the token id was revoked and has not expired yet.
func IsTokenBlacklisted(jti string) bool {
	if jti == "" {
		return false
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, blacklistPrefix+jti).Result()
		if err == nil && n > 0 {
			return true
		}
	}
	revokedMu.RLock()
	exp, ok := revoked[jti]
	revokedMu.RUnlock()
	return ok && time.Now().Before(exp)
}

func pruneRevokedLocked(now time.Time) {
	for k, exp := range revoked {
		if now.After(exp) {
			delete(revoked, k)
		}
	}
}
