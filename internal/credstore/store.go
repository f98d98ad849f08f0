// Package credstore holds the persisted credentials of the signed-in user:
// the raw bearer token, the cached role tag and the role-specific subject
// identifier. The decoded session is never stored here.
package credstore

import (
	"context"
	"errors"
)

// Keys written by login and read by the session guard.
const (
	KeyToken          = "token"
	KeyRole           = "role"
	KeyStudentNumber  = "studentNumber"
	KeyEmployeeNumber = "employeeNumber"
	KeyGuestID        = "guestId"
)

// ErrCorrupt is returned when persisted credentials cannot be decoded,
// e.g. a wrong passphrase for the encrypted file store.
var ErrCorrupt = errors.New("credential store corrupt")

// Store is a small persistent key-value store. Get reports ok=false for a
// missing key. Clear removes every entry and must succeed on an already
// empty store.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}

// SetAll writes several entries in order, stopping at the first error.
func SetAll(ctx context.Context, s Store, values map[string]string) error {
	for _, k := range []string{KeyToken, KeyRole, KeyStudentNumber, KeyEmployeeNumber, KeyGuestID} {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := s.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
