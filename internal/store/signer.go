package store

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	signatureSuffix = ".sig"
	pbkdf2Iters     = 4096
	pbkdf2KeyLen    = 32
	saltLen         = 16
)

// ErrBadSignature is returned when the database sidecar does not match
// the file contents.
var ErrBadSignature = errors.New("store: signature mismatch")

// Signer computes and checks the HMAC sidecar for the database file.
// The MAC key is derived from the operator passphrase with PBKDF2; the
// salt is stored alongside the MAC so verification works across runs.
type Signer struct {
	passphrase []byte
}

// NewSigner creates a signer from the operator passphrase. Returns nil
// when the passphrase is empty, which disables signing.
func NewSigner(passphrase string) *Signer {
	if passphrase == "" {
		return nil
	}
	return &Signer{passphrase: []byte(passphrase)}
}

// SignFile writes the signature sidecar for path covering data.
func (s *Signer) SignFile(path string, data []byte) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	mac := s.mac(salt, data)
	line := hex.EncodeToString(salt) + ":" + hex.EncodeToString(mac) + "\n"
	return atomicWrite(path+signatureSuffix, []byte(line), 0o600)
}

// VerifyFile checks the sidecar for path against data.
func (s *Signer) VerifyFile(path string, data []byte) error {
	raw, err := os.ReadFile(path + signatureSuffix)
	if err != nil {
		return fmt.Errorf("read signature sidecar: %w", err)
	}
	parts := strings.SplitN(strings.TrimSpace(string(raw)), ":", 2)
	if len(parts) != 2 {
		return ErrBadSignature
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return ErrBadSignature
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return ErrBadSignature
	}
	if !hmac.Equal(want, s.mac(salt, data)) {
		return ErrBadSignature
	}
	return nil
}

func (s *Signer) mac(salt, data []byte) []byte {
	key := pbkdf2.Key(s.passphrase, salt, pbkdf2Iters, pbkdf2KeyLen, sha256.New)
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
