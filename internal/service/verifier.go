package service

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier abstracts how passwords are stored and checked so the
// user store never sees the scheme. The default is plaintext exact-match:
// existing user files contain plaintext passwords and login is an exact
// string comparison. bcrypt can be selected in configuration for fresh
// deployments.
type CredentialVerifier interface {
	Hash(plain string) (string, error)
	Verify(stored, candidate string) bool
}

// PlaintextVerifier stores and compares passwords verbatim.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Hash(plain string) (string, error) {
	return plain, nil
}

func (PlaintextVerifier) Verify(stored, candidate string) bool {
	return stored == candidate
}

// BcryptVerifier stores bcrypt hashes. Selecting it does not rewrite
// existing plaintext rows; those users can no longer log in, so it is only
// suitable for fresh data directories.
type BcryptVerifier struct{}

func (BcryptVerifier) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptVerifier) Verify(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}

// NewVerifier returns the verifier for a configured scheme name, falling
// back to plaintext for unknown values.
func NewVerifier(scheme string) CredentialVerifier {
	if scheme == "bcrypt" {
		return BcryptVerifier{}
	}
	return PlaintextVerifier{}
}
