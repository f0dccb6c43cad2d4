package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// DummyHash returns a hash of a fixed secret at cost. Comparing against it
// when no real hash exists makes a missing account cost the same bcrypt
// work as a wrong password, provided cost matches the stored hashes.
func DummyHash(cost int) (string, error) {
	return HashPassword("identity-service-dummy", cost)
}

// BurnPasswordCheck performs a bcrypt comparison whose result is discarded.
func BurnPasswordCheck(dummy, plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummy), []byte(plain))
}
