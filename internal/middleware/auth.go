package middleware

import (
	"net/http"
	"strings"

	"servitec/internal/apierror"
	"servitec/internal/service"
	"servitec/internal/sesion"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SesionKey is the gin context key holding the sesion.Sesion.
const SesionKey = "sesion"

// JWTClaims are the custom claims embedded in every token issued by AuthService.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
	Tipo     string `json:"tipo"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer access token and resolves the request session.
// The session travels both in the gin context and in the request context, so
// services receive it through sesion.FromContext as well.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		// un refresh token sólo sirve en /v1/auth/refresh
		if claims.Tipo != service.TokenAcceso {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
			return
		}

		ses := sesion.Sesion{UsuarioID: uid, Username: claims.Username, Nombre: claims.Nombre, Rol: claims.Rol}
		c.Set(SesionKey, ses)
		c.Set(UsuarioKey, claims.Username)
		c.Request = c.Request.WithContext(sesion.NewContext(c.Request.Context(), ses))
		c.Next()
	}
}

// RequireRol rejects requests whose role is below minRol in the
// tecnico < coordinador < admin hierarchy.
func RequireRol(minRol string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ses, ok := GetSesion(c)
		if !ok || !ses.Puede(minRol) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetSesion returns the session resolved by JWTAuth.
func GetSesion(c *gin.Context) (sesion.Sesion, bool) {
	v, exists := c.Get(SesionKey)
	if !exists {
		return sesion.Sesion{}, false
	}
	ses, ok := v.(sesion.Sesion)
	return ses, ok
}
