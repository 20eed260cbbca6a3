package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Class is the coarse access class derived from an account's fine-grained
// role. All route and record gating happens on the class, never on the raw
// role.
type Class string

const (
	ClassCitizen Class = "citizen"
	ClassStaff   Class = "staff"
	ClassAdmin   Class = "admin"
)

var adminRoles = map[string]bool{
	"super-admin":   true,
	"system-admin":  true,
	"content-admin": true,
	"user-admin":    true,
}

var staffRoles = map[string]bool{
	"admin":       true,
	"manager":     true,
	"staff":       true,
	"supervisor":  true,
	"coordinator": true,
}

var citizenRoles = map[string]bool{
	"customer":   true,
	"client":     true,
	"member":     true,
	"subscriber": true,
	"user":       true,
}

// DeriveClass maps a fine-grained role onto its coarse class. The class is
// computed here at account creation and embedded in issued tokens; it is
// never accepted from the client.
func DeriveClass(role string) Class {
	switch {
	case adminRoles[role]:
		return ClassAdmin
	case staffRoles[role]:
		return ClassStaff
	default:
		return ClassCitizen
	}
}

// ValidRole reports whether role is part of the fixed enumeration.
func ValidRole(role string) bool {
	return adminRoles[role] || staffRoles[role] || citizenRoles[role]
}

// Account is the auth-side view of a stored account. The password hash
// never leaves this package.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Class        Class     `json:"userType"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is what authenticated handlers see: the claims carried by the
// bearer token. Role and class are trusted for the token's lifetime.
type Identity struct {
	UserID   int64
	Username string
	Email    string
	Role     string
	Class    Class
}

func (i *Identity) IsAdmin() bool {
	return i.Class == ClassAdmin
}

func (i *Identity) IsStaffOrAdmin() bool {
	return i.Class == ClassStaff || i.Class == ClassAdmin
}

type Claims struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	UserClass string `json:"userType"`
	jwt.RegisteredClaims
}

type TokenGenerator interface {
	GenerateToken(account *Account) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	Secret   []byte
	TokenTTL time.Duration
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:   []byte(secret),
		TokenTTL: ttl,
	}
}

func (j *JWTTokenGenerator) GenerateToken(account *Account) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID:    account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		UserClass: string(account.Class),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   fmt.Sprintf("%d", account.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Identity built from validated claims.
func (c *Claims) Identity() *Identity {
	return &Identity{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
		Class:    Class(c.UserClass),
	}
}

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ContextIdentityKey).(*Identity)
	return id, ok
}

func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
