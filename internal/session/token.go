package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a bearer token. ExpiresAt is zero when
// the token carries no exp claim.
type Claims struct {
	Subject     string
	Authorities []string
	Role        Role
	ExpiresAt   time.Time
	raw         jwt.MapClaims
}

// String returns a string-valued claim, or "" if absent.
func (c Claims) String(key string) string {
	switch v := c.raw[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

// Expired reports whether exp <= now. Tokens without exp never expire here;
// the backend remains the authority for those.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(now)
}

// DecodeClaims decodes the payload segment of a three-part token. With an
// empty secret only that segment is read: header and signature are not
// checked, since the guard is advisory and the backend rejects forged
// tokens on every call. With a secret the token must carry a valid HS256
// signature. Expiry is left to the caller so that it can be reported
// separately from malformed tokens.
func DecodeClaims(raw, secret string) (Claims, error) {
	mc := jwt.MapClaims{}
	if secret == "" {
		var err error
		if mc, err = decodePayload(raw); err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	} else {
		p := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
		_, err := p.ParseWithClaims(raw, mc, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil {
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: exp: %v", ErrTokenMalformed, err)
	}
	sub, _ := mc.GetSubject()

	c := Claims{Subject: sub, Authorities: authorities(mc["authorities"]), raw: mc}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.Role = RoleFromAuthorities(c.Authorities)
	return c, nil
}

func decodePayload(raw string) (jwt.MapClaims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("token has %d segments, want 3", len(parts))
	}
	seg, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("payload: %v", err)
	}
	var mc jwt.MapClaims
	if err := json.Unmarshal(seg, &mc); err != nil {
		return nil, fmt.Errorf("payload: %v", err)
	}
	if mc == nil {
		return nil, fmt.Errorf("payload is not an object")
	}
	return mc, nil
}

// authorities accepts ["ROLE_X", ...], [{"authority": "ROLE_X"}, ...] or a
// single space/comma separated string.
func authorities(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case string:
		out = strings.FieldsFunc(t, func(r rune) bool { return r == ' ' || r == ',' })
	case []interface{}:
		for _, item := range t {
			switch a := item.(type) {
			case string:
				out = append(out, a)
			case map[string]interface{}:
				if s, ok := a["authority"].(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
