package roma

import (
	"context"
	"fmt"

	"github.com/binrc/roma-client-go/internal/api"
	"github.com/binrc/roma-client-go/internal/sshkey"
)

// MySSHKey retrieves the authenticated user's public key. The Fingerprint
// is filled in locally when the backend leaves it out.
func (c *Client) MySSHKey(ctx context.Context) (*SSHKey, error) {
	key, err := c.apiClient.GetMySSHKey(ctx)
	if err != nil {
		return nil, err
	}
	fillFingerprint(key)
	return key, nil
}

// UploadSSHKey replaces the authenticated user's key pair. The pair is
// checked locally first: the private key must parse, must not need a
// passphrase and must match the public key.
func (c *Client) UploadSSHKey(ctx context.Context, publicKey, privateKey string) (*SSHKey, error) {
	pub, err := sshkey.ValidatePair(publicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSSHKey, err)
	}

	req := api.SSHKeyUpload{PublicKey: pub.Authorized(), PrivateKey: privateKey}
	if err := c.apiClient.UploadSSHKey(ctx, req); err != nil {
		return nil, err
	}
	return &SSHKey{PublicKey: req.PublicKey, Fingerprint: pub.Fingerprint}, nil
}

// GenerateSSHKey asks the backend for a new key pair, replacing the current
// one. The private key is only returned here.
func (c *Client) GenerateSSHKey(ctx context.Context) (*SSHKey, error) {
	key, err := c.apiClient.GenerateSSHKey(ctx)
	if err != nil {
		return nil, err
	}
	fillFingerprint(key)
	return key, nil
}

func fillFingerprint(key *SSHKey) {
	if key.Fingerprint != "" || key.PublicKey == "" {
		return
	}
	if fp, err := sshkey.Fingerprint(key.PublicKey); err == nil {
		key.Fingerprint = fp
	}
}
