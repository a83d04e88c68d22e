package utils

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// HashPassword returns a salted one-way hash of the password.
// Plaintext passwords are never persisted.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
