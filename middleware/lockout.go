package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inverpulse/utils"
)

// Failed login tracking. Redis keeps lockouts consistent across instances;
// without it the counters live in this process.

// LoginFailuresBeforeLock is the number of wrong passwords tolerated before
// the account is locked.
const LoginFailuresBeforeLock = 5

var lockSteps = []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute}

var (
	loginMu   sync.Mutex
	failedMap = make(map[uint]int)
	lockMap   = make(map[uint]int64)
)

func lockDuration(failures int) time.Duration {
	over := failures - LoginFailuresBeforeLock
	if over < 0 {
		return 0
	}
	return lockSteps[min(over, len(lockSteps)-1)]
}

func failKey(userID uint) string { return fmt.Sprintf("login:fail:u:%d", userID) }
func lockKey(userID uint) string { return fmt.Sprintf("login:lock:u:%d", userID) }

// IsAccountLocked reports whether logins for userID are blocked and for how long.
func IsAccountLocked(ctx context.Context, userID uint) (bool, time.Duration) {
	if utils.RedisClient != nil {
		ttl, err := utils.RedisClient.TTL(ctx, lockKey(userID)).Result()
		if err == nil && ttl > 0 {
			return true, ttl
		}
		return false, 0
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	until := lockMap[userID]
	now := nowUnix()
	if until > now {
		return true, time.Duration(until - now)
	}
	delete(lockMap, userID)
	return false, 0
}

// RecordFailedLogin counts a wrong password and locks the account once the
// threshold is passed.
func RecordFailedLogin(ctx context.Context, userID uint) {
	if utils.RedisClient != nil {
		failures, err := utils.RedisClient.Incr(ctx, failKey(userID)).Result()
		if err == nil {
			_ = utils.RedisClient.Expire(ctx, failKey(userID), 30*time.Minute).Err()
			if d := lockDuration(int(failures)); d > 0 {
				_ = utils.RedisClient.Set(ctx, lockKey(userID), "1", d).Err()
			}
			return
		}
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	failedMap[userID]++
	if d := lockDuration(failedMap[userID]); d > 0 {
		lockMap[userID] = nowUnix() + int64(d)
	}
}

func ResetFailedLogin(ctx context.Context, userID uint) {
	if utils.RedisClient != nil {
		_ = utils.RedisClient.Del(ctx, failKey(userID), lockKey(userID)).Err()
		return
	}
	loginMu.Lock()
	defer loginMu.Unlock()
	delete(lockMap, userID)
	delete(failedMap, userID)
}
