package services

// PasswordHasher abstracts password hashing and verification.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns nil when password matches the stored hash.
	Verify(storedHash, password string) error
}
