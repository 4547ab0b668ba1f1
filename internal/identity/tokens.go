package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer: значение claim "iss" во всех access-токенах.
const TokenIssuer = "apartment-society"

var ErrInvalidToken = errors.New("could not validate credentials")

// Tokens выпускает и проверяет HMAC-подписанные JWT с claim "user_id".
type Tokens struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, algorithm string, ttl time.Duration) (*Tokens, error) {
	m, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	return &Tokens{secret: []byte(secret), method: m, ttl: ttl, now: time.Now}, nil
}

func (t *Tokens) Issue(userID uint) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"iss":     TokenIssuer,
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(t.ttl).Unix(),
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

func (t *Tokens) Resolve(token string) (uint, error) {
	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (any, error) {
		if tok.Method.Alg() != t.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", tok.Method.Alg())
		}
		return t.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	// JSON-числа приходят как float64
	raw, ok := claims["user_id"].(float64)
	if !ok || raw <= 0 || raw != float64(uint(raw)) {
		return 0, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}
	return uint(raw), nil
}
