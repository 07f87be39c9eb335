package middleware

import (
	"net/http"
	"slices"

	"merchant-desk/internal/domain"

	"go.uber.org/zap"
)

// RequireOwner admits only the shop owner
func RequireOwner(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleOwner}, logger)
}

// RequireStaff admits merchants and the owner
func RequireStaff(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{domain.RoleMerchant, domain.RoleOwner}, logger)
}

// RequireRole ensures the account has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetAccountRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !slices.Contains(allowedRoles, role) {
				logger.Warn("Account role not authorized",
					zap.String("role", role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
