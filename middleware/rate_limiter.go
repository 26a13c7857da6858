package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"inverpulse/utils"
)

// In-memory sliding window limiters. Counters are per process; the login
// lockout in lockout.go is the only limiter shared through Redis.

type timestamps []int64 // unix nanos

func nowUnix() int64 { return time.Now().UnixNano() }

func getEnvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

// slide drops entries older than cutoff, appends now and returns the result.
func slide(arr timestamps, cutoff, now int64) timestamps {
	filtered := arr[:0]
	for _, ts := range arr {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	return append(filtered, now)
}

func prune(state map[string]timestamps, window time.Duration) {
	cutoff := nowUnix() - int64(window)
	for k, arr := range state {
		if len(arr) == 0 || arr[len(arr)-1] < cutoff {
			delete(state, k)
		}
	}
}

func tooMany(w http.ResponseWriter, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
		Success: false,
		Message: "Too many requests, please try again later",
		Data:    map[string]int{"retry_after_seconds": retryAfter},
	})
}

// IPRateLimiter limits requests per client IP.
type IPRateLimiter struct {
	window      time.Duration
	max         int
	mu          sync.Mutex
	state       map[string]timestamps
	trustedCIDR []string
}

// NewIPRateLimiter allows maxReq requests per window for each IP. Proxies
// listed in TRUSTED_PROXIES may set X-Forwarded-For.
func NewIPRateLimiter(maxReq int, window time.Duration) *IPRateLimiter {
	if maxReq <= 0 {
		maxReq = getEnvInt("RATE_IP_DEFAULT", 200)
	}
	l := &IPRateLimiter{
		window: window,
		max:    maxReq,
		state:  make(map[string]timestamps),
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		l.trustedCIDR = strings.Split(v, ",")
	}
	go l.cleanupLoop(getEnvDuration("RATE_CLEANUP_SECONDS", time.Minute))
	return l
}

// clientIPGeneric returns the client IP. X-Forwarded-For and X-Real-IP are
// honored only when the remote address is one of trustedCIDR.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteHost = r.RemoteAddr
	}
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" || remoteIP == nil {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil && ipnet.Contains(remoteIP) {
				trusted = true
				break
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	return remoteHost
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		now := nowUnix()

		l.mu.Lock()
		filtered := slide(l.state[ip], now-int64(l.window), now)
		l.state[ip] = filtered
		count := len(filtered)
		oldest := filtered[0]
		l.mu.Unlock()

		remaining := l.max - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > l.max {
			tooMany(w, int((oldest+int64(l.window)-now)/int64(time.Second)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) cleanupLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		prune(l.state, l.window)
		l.mu.Unlock()
	}
}

// UserRateLimiter limits authenticated investors per route category, with
// escalating penalties for repeat offenders. Admins bypass it.
type UserRateLimiter struct {
	mu       sync.Mutex
	state    map[string]timestamps // key = u:<id>:<category>
	penalty  map[string]penaltyInfo
	window   time.Duration
	maxRead  int
	maxWrite int
}

type penaltyInfo struct {
	Level int
	Until int64
}

var penaltySteps = []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute}

func NewUserRateLimiter(maxReqRead, maxReqWrite int, windowSec int) *UserRateLimiter {
	l := &UserRateLimiter{
		state:    make(map[string]timestamps),
		penalty:  make(map[string]penaltyInfo),
		window:   time.Duration(windowSec) * time.Second,
		maxRead:  maxReqRead,
		maxWrite: maxReqWrite,
	}
	go l.cleanupLoop(getEnvDuration("RATE_CLEANUP_SECONDS", time.Minute))
	return l
}

func routeCategory(r *http.Request) string {
	switch {
	case strings.Contains(r.URL.Path, "/kyc"):
		return "upload"
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return "read"
	default:
		return "write"
	}
}

func (l *UserRateLimiter) limitFor(cat string) int {
	switch cat {
	case "upload":
		return getEnvInt("RATE_USER_UPLOAD", 10)
	case "read":
		return l.maxRead
	default:
		return l.maxWrite
	}
}

func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := utils.GetUserID(r)
		role, _ := r.Context().Value(utils.UserRoleKey).(string)
		if !ok || role == utils.RoleAdmin {
			next.ServeHTTP(w, r)
			return
		}
		cat := routeCategory(r)
		limit := l.limitFor(cat)
		key := "u:" + strconv.FormatUint(uint64(uid), 10) + ":" + cat
		now := nowUnix()

		l.mu.Lock()
		if pi := l.penalty[key]; pi.Until > now {
			l.mu.Unlock()
			tooMany(w, int((pi.Until-now)/int64(time.Second)))
			return
		}
		filtered := slide(l.state[key], now-int64(l.window), now)
		l.state[key] = filtered
		count := len(filtered)
		if count > limit {
			pi := l.penalty[key]
			step := penaltySteps[min(pi.Level, len(penaltySteps)-1)]
			l.penalty[key] = penaltyInfo{Level: pi.Level + 1, Until: now + int64(step)}
			l.mu.Unlock()
			tooMany(w, int(step.Seconds()))
			return
		}
		l.mu.Unlock()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-count))
		next.ServeHTTP(w, r)
	})
}

func (l *UserRateLimiter) cleanupLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for range tick.C {
		l.mu.Lock()
		prune(l.state, l.window)
		now := nowUnix()
		for k, p := range l.penalty {
			// keep the level around for a while so repeat offenders escalate
			if p.Until+int64(time.Hour) < now {
				delete(l.penalty, k)
			}
		}
		l.mu.Unlock()
	}
}
