package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the access level carried by a token.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleController Role = "controller"
)

// roleRank orders roles; controller implies viewer.
var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleController: 2,
}

// Allows reports whether r satisfies the required role.
func (r Role) Allows(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// Claims are the verified token claims the API cares about.
type Claims struct {
	Subject string
	Role    Role
}

// Verification errors.
var (
	ErrInvalidToken = errors.New("UNAUTHORIZED")
	ErrUnknownRole  = errors.New("FORBIDDEN")
)

// Mode selects the verification algorithm.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeHS256 Mode = "hs256"
	ModeRS256 Mode = "rs256"
)

// Verifier validates bearer tokens.
type Verifier struct {
	mode      Mode
	secret    []byte
	publicKey *rsa.PublicKey
}

// NewHS256Verifier creates a verifier for HMAC-signed tokens.
func NewHS256Verifier(secret string) *Verifier {
	return &Verifier{mode: ModeHS256, secret: []byte(secret)}
}

// NewRS256Verifier creates a verifier from a PEM-encoded RSA public key
// file (PKIX or PKCS#1).
func NewRS256Verifier(publicKeyFile string) (*Verifier, error) {
	data, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", publicKeyFile)
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key in %s is not RSA", publicKeyFile)
		}
		return &Verifier{mode: ModeRS256, publicKey: rsaKey}, nil
	}

	rsaKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &Verifier{mode: ModeRS256, publicKey: rsaKey}, nil
}

// NewDisabledVerifier creates a verifier that accepts every request with
// controller access. Bench deployments only.
func NewDisabledVerifier() *Verifier {
	return &Verifier{mode: ModeNone}
}

// Disabled reports whether verification is bypassed.
func (v *Verifier) Disabled() bool {
	return v.mode == ModeNone
}

// Verify parses and validates a bearer token and extracts its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.mode == ModeNone {
		return &Claims{Subject: "anonymous", Role: RoleController}, nil
	}

	var methods []string
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		switch v.mode {
		case ModeHS256:
			return v.secret, nil
		case ModeRS256:
			return v.publicKey, nil
		default:
			return nil, fmt.Errorf("unsupported verification mode %q", v.mode)
		}
	}
	switch v.mode {
	case ModeHS256:
		methods = []string{"HS256"}
	case ModeRS256:
		methods = []string{"RS256"}
	}

	token, err := jwt.Parse(tokenString, keyFunc, jwt.WithValidMethods(methods))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}

	roleStr, _ := mapClaims["role"].(string)
	role := Role(roleStr)
	if _, known := roleRank[role]; !known {
		return nil, ErrUnknownRole
	}
	claims.Role = role

	return claims, nil
}
