// Package sessiontest issues bearer tokens shaped like the backend's for
// use in tests.
package sessiontest

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Secret signs every token issued by this package.
const Secret = "test-secret"

// Token signs an HS256 token with the given authorities, subject and
// expiry. A zero exp omits the claim. extra claims are merged in last.
func Token(sub string, authorities []string, exp time.Time, extra map[string]interface{}) string {
	claims := jwt.MapClaims{
		"sub": sub,
		"iat": time.Now().UTC().Unix(),
	}
	if authorities != nil {
		list := make([]interface{}, len(authorities))
		for i, a := range authorities {
			list[i] = a
		}
		claims["authorities"] = list
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	for k, v := range extra {
		claims[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		panic(err)
	}
	return signed
}
