package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/reco-api/internal/application/dto"
	"github.com/jhoicas/reco-api/pkg/jwt"
)

// Locals keys para UserID, BusinessID y Role en Fiber.
const (
	LocalUserID     = "user_id"
	LocalBusinessID = "business_id"
	LocalRole       = "role"
)

// Roles con alcance especial.
const (
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID, BusinessID y Role a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, businessID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		// business_id vacío en los repositorios significa "todos los negocios": sólo admin.
		if businessID == "" && !strings.EqualFold(role, RoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el token no está asociado a un negocio"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalBusinessID, businessID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// RequireRole permite continuar sólo si el rol del token está entre allowed.
// Debe usarse después de AuthMiddleware.
func RequireRole(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range allowed {
			if strings.EqualFold(r, role) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetBusinessID devuelve el BusinessID del token.
func GetBusinessID(c *fiber.Ctx) string {
	return localString(c, LocalBusinessID)
}

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

// IsAdmin indica si el token es de administrador de plataforma.
func IsAdmin(c *fiber.Ctx) bool {
	return strings.EqualFold(GetRole(c), RoleAdmin)
}

// ScopeBusinessID negocio sobre el que actúa la petición. Un admin puede elegirlo con
// requested (query o body); vacío significa todos los negocios. El resto de roles
// siempre queda limitado al negocio del token y nunca recibe un alcance vacío: sin
// negocio se usa el propio usuario como dueño de los registros.
func ScopeBusinessID(c *fiber.Ctx, requested string) string {
	if IsAdmin(c) {
		return requested
	}
	if b := GetBusinessID(c); b != "" {
		return b
	}
	return GetUserID(c)
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
