package store

import (
	"crypto/rand"
	"encoding"
	"io"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	saltSize     = 16
	secretboxKey = 32
)

// deriveKey turns a passphrase into a secretbox key via scrypt, salted.
func deriveKey(passphrase, salt []byte) (*[secretboxKey]byte, error) {
	raw, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, secretboxKey)
	if err != nil {
		return nil, errs.New(errs.KindKeyInvalid, "store: key derivation failed", err)
	}
	var key [secretboxKey]byte
	copy(key[:], raw)
	return &key, nil
}

// SaveKeySealed writes key material encrypted under a passphrase-derived
// key, for Secret and other material that must not sit in the clear on
// disk. Layout: salt(16) || nonce(24) || secretbox(ciphertext).
func (s *Store) SaveKeySealed(name string, key encoding.BinaryMarshaler, passphrase []byte) error {
	return SaveKeySealedFile(s.path(name+".key.sealed"), key, passphrase)
}

// LoadKeySealed is the decrypting counterpart of SaveKeySealed.
func (s *Store) LoadKeySealed(name string, key encoding.BinaryUnmarshaler, passphrase []byte) error {
	return LoadKeySealedFile(s.path(name+".key.sealed"), key, passphrase)
}

// SaveKeySealedFile is SaveKeySealed for a collaborator that already has a
// full key filename from configuration rather than a Store-rooted name.
func SaveKeySealedFile(path string, key encoding.BinaryMarshaler, passphrase []byte) error {
	plain, err := key.MarshalBinary()
	if err != nil {
		return errs.New(errs.KindIO, "store: marshal key failed", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return errs.New(errs.KindIO, "store: salt generation failed", err)
	}
	secret, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errs.New(errs.KindIO, "store: nonce generation failed", err)
	}

	sealed := secretbox.Seal(nil, plain, &nonce, secret)
	out := make([]byte, 0, saltSize+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)

	if err := os.WriteFile(path, out, 0600); err != nil {
		return errs.New(errs.KindIO, "store: cannot write "+path, err)
	}
	return nil
}

// LoadKeySealedFile is the decrypting counterpart of SaveKeySealedFile.
func LoadKeySealedFile(path string, key encoding.BinaryUnmarshaler, passphrase []byte) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.New(errs.KindIO, "store: cannot read "+path, err)
	}
	if len(data) < saltSize+24 {
		return errs.New(errs.KindProtocol, "store: sealed key file truncated", nil)
	}
	salt := data[:saltSize]
	var nonce [24]byte
	copy(nonce[:], data[saltSize:saltSize+24])
	box := data[saltSize+24:]

	secret, err := deriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	plain, ok := secretbox.Open(nil, box, &nonce, secret)
	if !ok {
		return errs.New(errs.KindKeyInvalid, "store: wrong passphrase or corrupted key file", nil)
	}
	if err := key.UnmarshalBinary(plain); err != nil {
		return errs.New(errs.KindIO, "store: unmarshal key failed", err)
	}
	return nil
}
