// Package offertoken issues and validates the signed bearer tokens that
// authorize a driver's reply to a job offer. A token is the only channel
// through which an SMS reply or an offer link can act on a specific offer,
// so it carries the route identity and an absolute expiry and is signed
// with the service secret.
package offertoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	// ErrTokenMalformed is returned when a token is not a structurally
	// valid signed three-segment string or its signature does not verify.
	ErrTokenMalformed = errors.New("offer token is malformed")

	// ErrTokenExpired is returned when a token is well formed and signed
	// but its embedded expiry has passed.
	ErrTokenExpired = errors.New("offer token is expired")
)

// Claims is the payload embedded in an offer token.
// RouteID identifies the offered route; TaskID optionally identifies the
// dispatch task for standalone reassignment offers; TriggerName records
// which lifecycle trigger produced the offer.
type Claims struct {
	RouteID     string `json:"routeId"`
	TaskID      string `json:"taskId,omitempty"`
	TriggerName string `json:"triggerName,omitempty"`
	jwt.StandardClaims
}

// Sign produces a signed token embedding the claims with the given expiry.
func Sign(routeID, taskID, triggerName string, expiresAt time.Time, secret []byte) (string, error) {
	claims := Claims{
		RouteID:     routeID,
		TaskID:      taskID,
		TriggerName: triggerName,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates a token and returns its claims.
// Expired tokens yield ErrTokenExpired; any structural or signature
// failure yields ErrTokenMalformed. The two are distinguished so callers
// can treat expiry as a lifecycle event rather than a bad request.
func Parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return secret, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
