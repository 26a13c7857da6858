package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"inverpulse/database"
	"inverpulse/logging"
	"inverpulse/models"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient backs token revocation and login lockout. It stays nil when
// REDIS_ADDR is not configured.
var RedisClient *redis.Client

// InitRedis connects the shared client. A failed ping leaves RedisClient nil
// so callers fall back to their in-process paths.
func InitRedis(addr, password string, db int) {
	if addr == "" {
		return
	}
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logging.Named("redis").Warn("ping failed, revocation and lockout stay in-process", zap.Error(err))
		return
	}
	RedisClient = rc
}

type contextKey string

const UserIDKey = contextKey("userID")
const UserRoleKey = contextKey("userRole")
const RequestIDKey = contextKey("requestID")

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// SessionCookieName carries the access token for browser clients.
	SessionCookieName = "session_token"

	AccessTokenTTL  = 15 * time.Minute
	AppTokenTTL     = 30 * 24 * time.Hour
	AdminTokenTTL   = 6 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return []byte(secret), nil
}

// GenerateAccessToken issues an HS256 token for a user or admin id.
func GenerateAccessToken(id uint, role string, expiry time.Duration) (string, time.Time, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", time.Time{}, err
	}
	jti, err := models.RandomHex(32)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now()
	exp := now.Add(expiry)
	claims := jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  jti,
	}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		claims["aud"] = aud
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		claims["iss"] = iss
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccessToken checks signature, registered claims and the
// revocation list.
func ValidateAccessToken(tokenStr string) (jwt.MapClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if aud := os.Getenv("JWT_AUD"); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if jti, _ := claims["jti"].(string); jti != "" && RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// Redis errors do not fail authentication.
		if res, err := RedisClient.Get(ctx, revokedKey(jti)).Result(); err == nil && res == "1" {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// ClaimID extracts the numeric subject id from validated claims.
func ClaimID(claims jwt.MapClaims) uint {
	switch v := claims["id"].(type) {
	case float64:
		return uint(v)
	case int:
		return uint(v)
	case int64:
		return uint(v)
	case string:
		var n uint
		_, _ = fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

func ClaimRole(claims jwt.MapClaims) string {
	role, _ := claims["role"].(string)
	return role
}

// TokenFromRequest returns the bearer token, or the session cookie when no
// Authorization header is present.
func TokenFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if strings.HasPrefix(authz, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetSessionCookie mirrors the access token into an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   strings.ToLower(os.Getenv("ENV")) != "development",
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GenerateRefreshToken stores a new opaque refresh token and returns its id.
func GenerateRefreshToken(userID uint) (string, error) {
	rt, err := models.NewRefreshToken(userID, RefreshTokenTTL)
	if err != nil {
		return "", err
	}
	if database.DB == nil {
		return "", errors.New("database not initialized")
	}
	if err := database.DB.Create(rt).Error; err != nil {
		return "", err
	}
	return rt.ID, nil
}

// ValidateRefreshToken loads a refresh token that is neither revoked nor expired.
func ValidateRefreshToken(id string) (*models.RefreshToken, error) {
	if database.DB == nil {
		return nil, errors.New("database not initialized")
	}
	var rt models.RefreshToken
	if err := database.DB.Where("id = ?", id).First(&rt).Error; err != nil {
		return nil, err
	}
	if err := rt.Usable(time.Now()); err != nil {
		return nil, err
	}
	return &rt, nil
}

func revokedKey(jti string) string { return "jwt:blacklist:" + jti }

// RevokeJTI blacklists an access token id until it would have expired.
func RevokeJTI(jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("empty jti")
	}
	if RedisClient == nil {
		return errors.New("no revocation store configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return RedisClient.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

// RevokeClaims blacklists the jti of already validated claims.
func RevokeClaims(claims jwt.MapClaims) error {
	jti, _ := claims["jti"].(string)
	ttl := time.Duration(0)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = time.Until(exp.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return RevokeJTI(jti, ttl)
}

// GetUserID returns the authenticated subject id set by the auth middleware.
func GetUserID(r *http.Request) (uint, bool) {
	id, ok := r.Context().Value(UserIDKey).(uint)
	return id, ok
}

func GetRequestID(r *http.Request) string {
	rid, _ := r.Context().Value(RequestIDKey).(string)
	return rid
}
