// Package sshkey validates and generates the SSH key pairs users register
// with the bastion.
package sshkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

var (
	// ErrEmptyKey is returned when no key material was given.
	ErrEmptyKey = errors.New("ssh key is empty")
	// ErrInvalidPublicKey is returned when a public key cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid ssh public key")
	// ErrInvalidPrivateKey is returned when a private key cannot be parsed.
	ErrInvalidPrivateKey = errors.New("invalid ssh private key")
	// ErrKeyMismatch is returned when a private key does not belong to the
	// public key it was uploaded with.
	ErrKeyMismatch = errors.New("private key does not match public key")
)

// PublicKey is a parsed authorized_keys line.
type PublicKey struct {
	Type        string
	Fingerprint string
	Comment     string
	key         ssh.PublicKey
}

// Authorized returns the key in authorized_keys format, with the comment.
func (k *PublicKey) Authorized() string {
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(k.key)))
	if k.Comment != "" {
		line += " " + k.Comment
	}
	return line
}

// ParsePublicKey parses one authorized_keys line.
func ParsePublicKey(text string) (*PublicKey, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyKey
	}
	key, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return &PublicKey{
		Type:        key.Type(),
		Fingerprint: ssh.FingerprintSHA256(key),
		Comment:     comment,
		key:         key,
	}, nil
}

// Fingerprint returns the SHA256 fingerprint of an authorized_keys line.
func Fingerprint(text string) (string, error) {
	key, err := ParsePublicKey(text)
	if err != nil {
		return "", err
	}
	return key.Fingerprint, nil
}

// ValidatePair checks that privatePEM parses and derives publicKey.
// Passphrase-protected keys cannot be checked and are rejected.
func ValidatePair(publicKey, privatePEM string) (*PublicKey, error) {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(privatePEM) == "" {
		return nil, fmt.Errorf("%w: private key is empty", ErrInvalidPrivateKey)
	}

	signer, err := ssh.ParsePrivateKey([]byte(strings.TrimSpace(privatePEM)))
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: passphrase-protected keys are not supported", ErrInvalidPrivateKey)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	if ssh.FingerprintSHA256(signer.PublicKey()) != pub.Fingerprint {
		return nil, ErrKeyMismatch
	}
	return pub, nil
}

// KeyPair is a generated key pair.
type KeyPair struct {
	PublicKey   string
	PrivateKey  string
	Fingerprint string
}

// GenerateEd25519 creates a new ed25519 key pair. The private key is an
// unencrypted OpenSSH PEM block.
func GenerateEd25519(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("convert public key: %w", err)
	}

	authorized := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		authorized += " " + comment
	}

	return &KeyPair{
		PublicKey:   authorized,
		PrivateKey:  string(pem.EncodeToMemory(block)),
		Fingerprint: ssh.FingerprintSHA256(sshPub),
	}, nil
}
