package realmauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// resetClaims is the payload of a password reset link token. The token
// is only half of the story: its jti must still be present in the
// single-use Redis ledger when the link is confirmed.
type resetClaims struct {
	Realm string `json:"realm"`
	jwt.RegisteredClaims
}

func (e *Engine) newResetToken(identityID, realmSubdomain string, now time.Time) (token, jti string, err error) {
	jti = uuid.NewString()
	claims := resetClaims{
		Realm: realmSubdomain,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.config.PasswordReset.TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(e.config.PasswordReset.SigningKey)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func (e *Engine) parseResetToken(token string) (*resetClaims, error) {
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrResetTokenInvalid
		}
		return e.config.PasswordReset.SigningKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrResetTokenInvalid
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrResetTokenInvalid
	}
	return claims, nil
}
