package identity

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for new hashes.
const PasswordCost = 12

// HashPassword returns a salted bcrypt digest of plain.
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// CheckPassword reports whether plain matches digest.
// A malformed digest never matches.
func CheckPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// unknownUserDigest is compared against when the e-mail matches no account,
// so both login failures cost one bcrypt comparison.
var unknownUserDigest = sync.OnceValue(func() string {
	digest, err := HashPassword("unknown-user-placeholder")
	if err != nil {
		panic(err)
	}
	return digest
})
