package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/models"
)

// MiddlewareDB holds the principal lookups the auth gates need
type MiddlewareDB struct {
	ADB    databases.AdminDatabase
	UDB    databases.UserDatabase
	Secret string
}

// TokenClaims is the JWT payload shared by admin and user tokens
type TokenClaims struct {
	Scope string `json:"scope"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (m MiddlewareDB) parseToken(r *http.Request) (*TokenClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, jwt.ErrTokenMalformed
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	zap.S().Errorw("unauthorized",
		"url", r.URL,
		"reason", reason,
	)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "unauthorized"}`))
}

func forbidden(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error": "` + message + `"}`))
}

// AdminAuth gates a route behind an admin bearer token. An empty role list
// admits any authenticated admin; otherwise the principal's role must be in
// the list.
func (m MiddlewareDB) AdminAuth(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			claims, err := m.parseToken(r)
			if err != nil {
				unauthorized(w, r, err.Error())
				return
			}
			if claims.Scope != "admin" {
				forbidden(w, "admin token required")
				return
			}

			adminID, err := primitive.ObjectIDFromHex(claims.Subject)
			if err != nil {
				unauthorized(w, r, "bad subject")
				return
			}

			admin, err := m.ADB.FindOne(r.Context(), bson.M{"_id": adminID})
			if err != nil {
				forbidden(w, "admin not found")
				return
			}
			if admin.Status != models.AdminStatusApproved {
				zap.S().Warnw("admin access denied",
					"admin", admin.Email,
					"status", admin.Status,
					"url", r.URL,
				)
				forbidden(w, "account is not approved")
				return
			}

			if len(allowed) > 0 && !allowed[admin.Role] {
				zap.S().Warnw("admin role denied",
					"admin", admin.Email,
					"role", admin.Role,
					"url", r.URL,
				)
				forbidden(w, "insufficient role")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

// UserAuth gates a route behind a user bearer token and attaches the user
// principal for downstream handlers
func (m MiddlewareDB) UserAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		claims, err := m.parseToken(r)
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}
		if claims.Scope != "user" {
			forbidden(w, "user token required")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			unauthorized(w, r, "bad subject")
			return
		}

		user, err := m.UDB.FindOne(r.Context(), bson.M{"_id": userID})
		if err != nil {
			forbidden(w, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
