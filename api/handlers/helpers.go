package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reunite-app/missing-persons-api/api"
)

// caseIDFilter matches a case by its generated caseId or, when the value is a
// valid hex object ID, its _id
func caseIDFilter(id string) bson.M {
	or := []bson.M{{"caseId": id}}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		or = append(or, bson.M{"_id": oid})
	}
	return bson.M{"$or": or}
}

// signToken issues an HS256 bearer token for the given principal
func signToken(secret, subject, scope, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := api.TokenClaims{
		Scope: scope,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseDate accepts the two date formats the frontend sends
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// decodeDataURL turns a stored data-URL (or bare base64) string back into its
// binary form and content type. The content type comes from the data: prefix
// when present, and from the magic bytes otherwise.
func decodeDataURL(raw string) ([]byte, string, error) {
	contentType := ""
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		comma := strings.Index(raw, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("data url has no payload")
		}
		meta := raw[len("data:"):comma]
		if semi := strings.Index(meta, ";"); semi >= 0 {
			meta = meta[:semi]
		}
		contentType = meta
		payload = raw[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = sniffImageType(data)
	}
	return data, contentType, nil
}

// sniffImageType inspects magic bytes; jpeg is the fallback because that is
// what the mobile clients overwhelmingly upload
func sniffImageType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// extensionFor maps a served content type to a download extension
func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".jpg"
	}
}
