package port

// PasswordHasher hashes and verifies secrets using the configured one-way
// algorithm. Verify must compare in constant time.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}
