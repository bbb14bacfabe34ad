package security

import "golang.org/x/crypto/bcrypt"

// bcryptCost defines the bcrypt work factor.
const bcryptCost = 12

// HashPIN hashes a plaintext PIN using bcrypt.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPIN compares a bcrypt hash with a plaintext PIN.
func CheckPIN(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
