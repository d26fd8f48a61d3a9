package fakeremote

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindVoter = "mahasiswa"
	kindAdmin = "admin"

	// contextClaims is the gin context key of the verified claims
	contextClaims = "claims"
)

var errInvalidToken = errors.New("invalid token")

// claims are the claims of issued tokens
type claims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// principalID returns the id of the token subject
func (c *claims) principalID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// issueToken signs a token for the principal
func (s *Server) issueToken(kind string, id int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// parseToken verifies the signature, the expiry and the revocation
func (s *Server) parseToken(raw string) (*claims, error) {
	parsed := &claims{}
	token, err := jwt.ParseWithClaims(raw, parsed, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revoked[parsed.ID]; ok {
		return nil, errInvalidToken
	}
	return parsed, nil
}

// authenticated rejects requests without a valid bearer token.
// An empty kind accepts every principal
func (s *Server) authenticated(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			failure(c, http.StatusUnauthorized, "Unauthenticated.", nil)
			c.Abort()
			return
		}
		parsed, err := s.parseToken(raw)
		if err != nil {
			failure(c, http.StatusUnauthorized, "Token tidak valid atau sudah kedaluwarsa", nil)
			c.Abort()
			return
		}
		if kind != "" && parsed.Kind != kind {
			failure(c, http.StatusForbidden, "Akses ditolak", nil)
			c.Abort()
			return
		}
		c.Set(contextClaims, parsed)
		c.Next()
	}
}

// currentClaims returns the claims verified by authenticated
func currentClaims(c *gin.Context) *claims {
	value, _ := c.Get(contextClaims)
	parsed, _ := value.(*claims)
	return parsed
}
