// Package sftp implements the SSH-write output sink. Per spec §4.13/§4.14,
// SFTP uses password-or-key auth; the key is base64-encoded in api_key.
// Grounded on github.com/pkg/sftp paired with golang.org/x/crypto/ssh,
// the ecosystem's standard pairing for Go SFTP clients (both already in
// the pack's dependency set).
package sftp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/hostforensics/triage/internal/backoff"
	"github.com/hostforensics/triage/internal/logging"
)

// Sink writes files to a single remote directory over one SFTP session.
type Sink struct {
	client *sftp.Client
	conn   *ssh.Client
	root   string
}

// New dials addr and authenticates as user, trying apiKey first as a
// base64-encoded private key and falling back to it as a plain password.
func New(addr, user, apiKey, root string) (*Sink, error) {
	var auth ssh.AuthMethod
	if keyBytes, err := base64.StdEncoding.DecodeString(apiKey); err == nil {
		if signer, err := ssh.ParsePrivateKey(keyBytes); err == nil {
			auth = ssh.PublicKeys(signer)
		}
	}
	if auth == nil {
		auth = ssh.Password(apiKey)
	}

	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("sftp sink: dial %q: %w", addr, err)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp sink: new client: %w", err)
	}
	return &Sink{client: client, conn: conn, root: root}, nil
}

// Put writes body to root/name over the open SFTP session, creating
// intermediate directories as needed. contentType is unused: SFTP has no
// content-type metadata slot.
func (s *Sink) Put(ctx context.Context, name string, body []byte, _ string) error {
	remote := path.Join(s.root, name)
	return backoff.Default.Retry(ctx, func(n int) error {
		if err := s.client.MkdirAll(path.Dir(remote)); err != nil {
			return fmt.Errorf("sftp sink: mkdir %q: %w", path.Dir(remote), err)
		}
		f, err := s.client.Create(remote)
		if err != nil {
			logging.Warn("sftp sink write attempt failed", "path", remote, "attempt", n, "error", err)
			return err
		}
		defer f.Close()
		if _, err := f.ReadFrom(bytes.NewReader(body)); err != nil {
			return fmt.Errorf("sftp sink: write %q: %w", remote, err)
		}
		return nil
	})
}

// Close releases the underlying SFTP and SSH connections.
func (s *Sink) Close() error {
	s.client.Close()
	return s.conn.Close()
}
