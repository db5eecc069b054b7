package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMissing = errors.New("token is missing")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

const issuer = "card-table"

// Identity is who a connection plays as.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"displayName"`
}

type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Authenticator issues and checks guest tokens. With no secret it trusts the
// userId/name query parameters, which is only meant for local development.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (a *Authenticator) Enabled() bool { return len(a.secret) > 0 }

// Issue mints a token for a fresh guest user.
func (a *Authenticator) Issue(name string) (string, Identity, time.Time, error) {
	id := Identity{UserID: uuid.NewString(), Name: name}
	now := a.now()
	exp := now.Add(a.ttl)
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", Identity{}, time.Time{}, err
	}
	return signed, id, exp, nil
}

func (a *Authenticator) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrTokenMissing
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: claims.Subject, Name: claims.Name}, nil
}

// Identify resolves the caller of a websocket upgrade. Browsers cannot set headers on
// the upgrade request, so the token may also come from the "token" query parameter.
func (a *Authenticator) Identify(r *http.Request) (Identity, error) {
	q := r.URL.Query()
	if !a.Enabled() {
		id := Identity{UserID: q.Get("userId"), Name: q.Get("name")}
		if id.UserID == "" {
			id.UserID = uuid.NewString()
		}
		return id, nil
	}
	token := q.Get("token")
	if h := r.Header.Get("Authorization"); token == "" && strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	return a.Verify(token)
}
