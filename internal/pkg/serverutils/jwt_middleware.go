package serverutils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

// parseBearer verifies an HS256 token and returns its user_id claim.
func parseBearer(header, secret string) (uint64, error) {
	if secret == "" {
		return 0, errInvalidToken
	}
	tokenStr := strings.TrimSpace(header[len("Bearer "):])

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}
	return userIdClaim(claims["user_id"])
}

// userIdClaim accepts the id as a JSON number or a decimal string.
func userIdClaim(raw interface{}) (uint64, error) {
	switch v := raw.(type) {
	case float64:
		if v <= 0 || v != math.Trunc(v) || v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: bad user_id", errInvalidToken)
		}
		return uint64(v), nil
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("%w: bad user_id", errInvalidToken)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: missing user_id", errInvalidToken)
	}
}
