package auth

import (
	"github.com/dkovalev/notelist/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a bcrypt hash of a throwaway string. VerifyPassword runs
// against it when the user lookup came up empty, so an absent username costs
// the same as a wrong password.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// HashPassword computes a bcrypt hash of password at the given cost.
// The intermediate plaintext buffer is zeroed before returning.
func HashPassword(password string, cost int) (string, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	b, err := bcrypt.GenerateFromPassword(pw, cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(hash, password string) bool {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	return bcrypt.CompareHashAndPassword([]byte(hash), pw) == nil
}

// VerifyDummy burns one bcrypt comparison against a fixed hash. Called when
// the username lookup found nothing, to keep that path as slow as a real
// verification.
func VerifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
