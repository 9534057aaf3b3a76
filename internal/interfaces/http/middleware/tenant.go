package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicebooks/backend/internal/infrastructure/logger"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant resolution
type TenantMiddlewareConfig struct {
	// HeaderEnabled allows X-Tenant-ID header extraction as a fallback
	HeaderEnabled bool
	// JWTEnabled reads the tenant from JWT claims; the JWT middleware
	// must run first
	JWTEnabled bool
	// SubdomainEnabled resolves the tenant from the request host
	SubdomainEnabled bool
	// BaseDomain anchors subdomain extraction, e.g. "servicebooks.io"
	BaseDomain string
	// SkipPaths bypass tenant resolution (health, ping)
	SkipPaths []string
	// Required rejects requests that resolve no tenant
	Required bool
	// Logger for resolution diagnostics
	Logger *zap.Logger
}

// TenantMiddlewareWithConfig resolves the tenant for each request and
// stores it in both the gin context and the request context, so
// handlers scope their queries and logs carry the tenant ID.
// Resolution order: JWT claims, then X-Tenant-ID header, then subdomain.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID, source := resolveTenant(c, cfg)

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				abortUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}
		if tenantID == "" && cfg.Required {
			abortUnauthorized(c, "Tenant identification required")
			return
		}

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)

			ctx := c.Request.Context()
			ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Tenant identified",
					zap.String("tenant_id", tenantID),
					zap.String("method", source),
				)
			}
		}

		c.Next()
	}
}

func resolveTenant(c *gin.Context, cfg TenantMiddlewareConfig) (string, string) {
	if cfg.JWTEnabled {
		if v, exists := c.Get("jwt_tenant_id"); exists {
			if tid, ok := v.(string); ok && tid != "" {
				return tid, "jwt"
			}
		}
	}
	if cfg.HeaderEnabled {
		if tid := c.GetHeader(TenantHeaderKey); tid != "" {
			return tid, "header"
		}
	}
	if cfg.SubdomainEnabled && cfg.BaseDomain != "" {
		if tid := tenantFromSubdomain(c.Request.Host, cfg.BaseDomain); tid != "" {
			return tid, "subdomain"
		}
	}
	return "", ""
}

// tenantFromSubdomain maps "acme.servicebooks.io" under base domain
// "servicebooks.io" to "acme". "www" and the bare domain resolve nothing.
func tenantFromSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}
	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == host || subdomain == "" || subdomain == "www" {
		return ""
	}
	parts := strings.Split(subdomain, ".")
	return parts[0]
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID retrieves the resolved tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if v, exists := c.Get(TenantIDKey); exists {
		if tid, ok := v.(string); ok {
			return tid
		}
	}
	return ""
}
