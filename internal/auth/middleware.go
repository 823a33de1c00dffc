package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/portal-editais/edital-service/internal/config"
	"github.com/portal-editais/edital-service/internal/models"
	"github.com/portal-editais/edital-service/internal/repositories"
)

const principalKey = "principal"

// Authenticator validates Casdoor-issued bearer tokens and resolves them into
// a Principal stored on the gin context. User rows are upserted so audit
// records can name applicants cancelled by an administrator.
type Authenticator struct {
	client *casdoorsdk.Client
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewAuthenticator(cfg *config.Config, users repositories.UserRepository, logger *slog.Logger) *Authenticator {
	client := casdoorsdk.NewClient(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &Authenticator{client: client, users: users, logger: logger}
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
			return
		}

		claims, err := a.client.ParseJwtToken(token)
		if err != nil {
			a.logger.Warn("Rejected invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		principal := principalFromClaims(claims)
		a.syncUser(c, claims, principal)

		c.Set(principalKey, principal)
		c.Set("user_id", principal.ID)
		c.Next()
	}
}

// RequireAdmin sits behind Middleware on administrative routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Administrator role required"})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller placed by Middleware.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}

func principalFromClaims(claims *casdoorsdk.Claims) models.Principal {
	user := claims.User
	name := user.DisplayName
	if name == "" {
		name = user.Name
	}
	return models.Principal{
		ID:      user.Id,
		Name:    name,
		CPF:     user.Properties["cpf"],
		IsAdmin: user.IsAdmin,
	}
}

// syncUser mirrors the identity into the local users table. Failures are
// logged and do not block the request; the audit trail then degrades to the
// bare user id for that applicant.
func (a *Authenticator) syncUser(c *gin.Context, claims *casdoorsdk.Claims, principal models.Principal) {
	role := models.RoleApplicant
	if principal.IsAdmin {
		role = models.RoleAdmin
	}
	user := &models.User{
		ID:       principal.ID,
		FullName: principal.Name,
		Email:    claims.User.Email,
		CPF:      principal.CPF,
		Role:     role,
		IsActive: true,
	}
	if err := a.users.Upsert(c.Request.Context(), user); err != nil {
		a.logger.Warn("Failed to sync user record", "user_id", principal.ID, "error", err)
	}
}
