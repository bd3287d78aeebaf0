// Package spectatorkey generates the ed25519 key pair used to sign and
// verify spectator grants.
package spectatorkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/louisbranch/initiative/internal/services/initiative/domain/grant"
)

// Run generates a key pair and writes shell exports to out. A nil reader
// uses crypto/rand.
func Run(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate spectator grant key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", grant.EnvPrivateKey, grant.EncodeKey(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export %s=%s\n", grant.EnvPublicKey, grant.EncodeKey(publicKey)); err != nil {
		return err
	}
	return nil
}
