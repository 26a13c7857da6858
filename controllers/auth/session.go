package auth

import (
	"net/http"
	"time"

	"inverpulse/utils"
)

// issueSession creates an access token and a refresh token for userID and
// mirrors the access token into the session cookie. App clients get the long
// lived access token.
func issueSession(w http.ResponseWriter, userID uint, isApp *bool) (map[string]interface{}, error) {
	ttl := utils.AccessTokenTTL
	if isApp != nil && *isApp {
		ttl = utils.AppTokenTTL
	}
	accessToken, exp, err := utils.GenerateAccessToken(userID, utils.RoleUser, ttl)
	if err != nil {
		return nil, err
	}
	refreshToken, err := utils.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	utils.SetSessionCookie(w, accessToken, exp)
	return map[string]interface{}{
		"access_token":  accessToken,
		"access_expire": exp.UTC().Format(time.RFC3339),
		"refresh_token": refreshToken,
	}, nil
}
