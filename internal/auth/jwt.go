// Package auth validates the bearer tokens that identify the actor behind a
// mutation. Token issuance lives with the identity provider; Issue exists for
// tooling and tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrProjectMismatch is returned when a token is scoped to another project.
var ErrProjectMismatch = errors.New("token not valid for this project")

// JWTManager validates HS256 actor tokens.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// actorClaims extends standard JWT claims with an optional project scope.
type actorClaims struct {
	jwt.RegisteredClaims
	Project string `json:"project,omitempty"`
}

// Identity is what a valid token says about its bearer.
type Identity struct {
	ActorID uuid.UUID
	// ProjectID is uuid.Nil for tokens valid across projects.
	ProjectID uuid.UUID
}

// Allows reports whether the identity may act on project.
func (i Identity) Allows(project uuid.UUID) bool {
	return i.ProjectID == uuid.Nil || i.ProjectID == project
}

// Issue creates a signed token for actor, optionally scoped to one project.
func (m *JWTManager) Issue(actor uuid.UUID, project uuid.UUID) (string, error) {
	now := time.Now()
	claims := actorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if project != uuid.Nil {
		claims.Project = project.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate parses and validates a token and returns the bearer's identity.
func (m *JWTManager) Validate(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &actorClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*actorClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	actor, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid subject UUID: %w", err)
	}

	id := Identity{ActorID: actor}
	if claims.Project != "" {
		project, err := uuid.Parse(claims.Project)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid project claim: %w", err)
		}
		id.ProjectID = project
	}
	return id, nil
}
