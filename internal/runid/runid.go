// Package runid generates short, human-readable tags for labelling one
// benchmark run in logs and output files.
package runid

import (
	"crypto/rand"

	"github.com/keybase/saltpack/encoding/basex"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

// New returns a base62-encoded random tag derived from 16 bytes of entropy.
func New() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errs.New(errs.KindIO, "runid: entropy read failed", err)
	}
	return basex.Base62StdEncoding.EncodeToString(buf), nil
}
