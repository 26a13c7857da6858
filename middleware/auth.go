package middleware

import (
	"context"
	"errors"
	"net/http"

	"inverpulse/utils"
)

// AuthMiddleware authenticates investors by bearer token or session cookie
// and stores the user id and role in the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := utils.TokenFromRequest(r)
		if tokenStr == "" {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
			return
		}
		claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Session expired, please log in again"})
				return
			}
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid token"})
			return
		}

		role := utils.ClaimRole(claims)
		// admin tokens are not accepted on investor endpoints
		if role == utils.RoleAdmin {
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Access denied"})
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDKey, utils.ClaimID(claims))
		ctx = context.WithValue(ctx, utils.UserRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
