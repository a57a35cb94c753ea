package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/models"
)

const issuer = "scorely-auth"

// Role constants. Display is read-only and needs no PIN; controller and
// admin authenticate with a configured PIN.
const (
	RoleDisplay    = "display"
	RoleController = "controller"
	RoleAdmin      = "admin"
)

var roleLevels = map[string]int{
	RoleDisplay:    1,
	RoleController: 2,
	RoleAdmin:      3,
}

// Claims represents JWT token claims
type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"tokenType"`
	jwt.RegisteredClaims
}

type Service interface {
	Login(role, pin string) (string, error)
	Verify(token string) (*Claims, error)
	Permissions(role string) []string
}

type authService struct {
	jwtKey   []byte
	tokenTTL time.Duration
	pins     map[string][]byte // role -> bcrypt hash
}

func NewService(cfg *config.SecuritySettings) (Service, error) {
	pins := make(map[string][]byte)

	for role, pin := range map[string]string{
		RoleController: cfg.ControllerPin,
		RoleAdmin:      cfg.AdminPin,
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		pins[role] = hash
	}

	return &authService{
		jwtKey:   []byte(cfg.JwtKey),
		tokenTTL: time.Duration(cfg.TokenTTLHours) * time.Hour,
		pins:     pins,
	}, nil
}

// Login verifies the role's PIN and issues a signed token. The display
// role is issued a token without a PIN.
func (s *authService) Login(role, pin string) (string, error) {
	if _, ok := roleLevels[role]; !ok {
		logrus.WithField("role", role).Warn("Login attempt with invalid role")
		return "", models.ErrInvalidRole
	}

	if role != RoleDisplay {
		hash, ok := s.pins[role]
		if !ok {
			return "", models.ErrInvalidRole
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(pin)); err != nil {
			logrus.WithField("role", role).Warn("Login attempt with invalid PIN")
			return "", models.ErrInvalidPin
		}
	}

	now := time.Now()
	claims := &Claims{
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}

	logrus.WithField("role", role).Info("Token issued")
	return token, nil
}

// Verify parses and validates a token, checking signature, expiration and
// issuer.
func (s *authService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, errors.New("invalid token")
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if claims.TokenType != "access" {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}

// Permissions lists what a role may do; returned to clients on login.
func (s *authService) Permissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{"view", "control", "history", "manage"}
	case RoleController:
		return []string{"view", "control"}
	case RoleDisplay:
		return []string{"view"}
	}
	return nil
}

// HasLevel reports whether role meets or exceeds the required role.
func HasLevel(role, required string) bool {
	return roleLevels[role] >= roleLevels[required] && roleLevels[role] > 0
}
