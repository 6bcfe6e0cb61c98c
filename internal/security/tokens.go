package security

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a shopper. The subject is the user id that namespaces
// their cart, promo and checkout state.
type Claims struct {
	Perms []string `json:"perms"`
	jwt.RegisteredClaims
}

func (c Claims) UserID() string { return c.Subject }

func (c Claims) HasAll(required ...string) bool {
	for _, r := range required {
		if !slices.Contains(c.Perms, r) {
			return false
		}
	}
	return true
}

type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{cfg: cfg, now: time.Now}
}

func (t *Tokens) TTL() time.Duration { return t.cfg.TTL }

// IssueGuest mints a token for a brand new anonymous shopper.
func (t *Tokens) IssueGuest() (token, userID string, err error) {
	userID = uuid.NewString()
	token, err = t.Issue(userID, GuestPerms)
	return token, userID, err
}

func (t *Tokens) Issue(userID string, perms []string) (string, error) {
	now := t.now()
	claims := Claims{
		Perms: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,                              // issuer
			Subject:   userID,                                    // shopper id
			Audience:  jwt.ClaimStrings{t.cfg.Audience},          // audience
			IssuedAt:  jwt.NewNumericDate(now),                   // issued at
			NotBefore: jwt.NewNumericDate(now),                   // not before
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),    // expire
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.Secret))
}

// Parse verifies signature, issuer, audience and expiry.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(t.cfg.Secret), nil
	},
		jwt.WithLeeway(30*time.Second), // small clock skew
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithAudience(t.cfg.Audience),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
