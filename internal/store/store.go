// Package store persists Cuckoo tables and key material to disk, following
// the on-disk layout: a table is a params/size/ciphertext triad,
// keys are raw binary blobs, optionally sealed at rest (tables never are).
package store

import (
	"encoding"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/momalab/psi-ndss2025/internal/cuckoo"
	"github.com/momalab/psi-ndss2025/internal/errs"
	"github.com/momalab/psi-ndss2025/internal/wire"
)

// Store roots all table/key persistence at Dir, a single directory field
// plumbed through every save/load method.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errs.New(errs.KindIO, "store: cannot create "+dir, err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// SaveTable writes name.params, name.size, and name_<i>.ct.
func (s *Store) SaveTable(name string, table *cuckoo.Kuckoo, cells []*rlwe.Ciphertext) error {
	paramsPath := s.path(name + ".params")
	f, err := os.Create(paramsPath)
	if err != nil {
		return errs.New(errs.KindIO, "store: cannot create "+paramsPath, err)
	}
	werr := table.WriteParams(f)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return errs.New(errs.KindIO, "store: cannot close "+paramsPath, cerr)
	}

	sizePath := s.path(name + ".size")
	if err := os.WriteFile(sizePath, []byte(fmt.Sprintf("%d", len(cells))), 0600); err != nil {
		return errs.New(errs.KindIO, "store: cannot write "+sizePath, err)
	}

	for i, ct := range cells {
		if err := s.saveCiphertext(cellPath(s.Dir, name, i), ct); err != nil {
			return err
		}
	}
	return nil
}

// SaveTableFile is SaveTable for a full path prefix rather than a
// Store-rooted name: it writes prefix+".params", prefix+".size", and
// prefix+"_<i>.ct".
func SaveTableFile(prefix string, table *cuckoo.Kuckoo, cells []*rlwe.Ciphertext) error {
	dir, name := filepath.Split(prefix)
	s := &Store{Dir: dir}
	return s.SaveTable(name, table, cells)
}

// LoadTableFile is the counterpart of SaveTableFile.
func LoadTableFile(prefix string) (*cuckoo.Kuckoo, []*rlwe.Ciphertext, error) {
	dir, name := filepath.Split(prefix)
	s := &Store{Dir: dir}
	return s.LoadTable(name)
}

// LoadTable reads the triad written by SaveTable.
func (s *Store) LoadTable(name string) (*cuckoo.Kuckoo, []*rlwe.Ciphertext, error) {
	paramsPath := s.path(name + ".params")
	f, err := os.Open(paramsPath)
	if err != nil {
		return nil, nil, errs.New(errs.KindIO, "store: cannot open "+paramsPath, err)
	}
	table, err := cuckoo.ReadParams(f)
	_ = f.Close()
	if err != nil {
		return nil, nil, err
	}

	sizePath := s.path(name + ".size")
	sizeBytes, err := os.ReadFile(sizePath)
	if err != nil {
		return nil, nil, errs.New(errs.KindIO, "store: cannot read "+sizePath, err)
	}
	var count int
	if _, err := fmt.Sscanf(string(sizeBytes), "%d", &count); err != nil {
		return nil, nil, errs.New(errs.KindParameter, "store: malformed "+sizePath, err)
	}

	cells := make([]*rlwe.Ciphertext, count)
	for i := range cells {
		ct, err := s.loadCiphertext(cellPath(s.Dir, name, i))
		if err != nil {
			return nil, nil, err
		}
		cells[i] = ct
	}
	return table, cells, nil
}

func (s *Store) saveCiphertext(path string, ct *rlwe.Ciphertext) error {
	data, err := ct.MarshalBinary()
	if err != nil {
		return errs.New(errs.KindIO, "store: marshal ciphertext failed", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errs.New(errs.KindIO, "store: cannot write "+path, err)
	}
	return nil
}

func (s *Store) loadCiphertext(path string) (*rlwe.Ciphertext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, "store: cannot read "+path, err)
	}
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, errs.New(errs.KindIO, "store: unmarshal ciphertext failed", err)
	}
	return ct, nil
}

func cellPath(dir, name string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.ct", name, i))
}

// SaveKey writes key material as a raw binary blob.
func (s *Store) SaveKey(name string, key encoding.BinaryMarshaler) error {
	return SaveKeyFile(s.path(name+".key"), key)
}

// LoadKey reads key material into key.
func (s *Store) LoadKey(name string, key encoding.BinaryUnmarshaler) error {
	return LoadKeyFile(s.path(name+".key"), key)
}

// SaveKeyFile writes key material as a raw binary blob at an arbitrary path,
// for collaborators whose configuration already names a full key filename
// (rather than a bare name rooted at a Store's directory).
func SaveKeyFile(path string, key encoding.BinaryMarshaler) error {
	data, err := key.MarshalBinary()
	if err != nil {
		return errs.New(errs.KindIO, "store: marshal key failed", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errs.New(errs.KindIO, "store: cannot write "+path, err)
	}
	return nil
}

// LoadKeyFile reads key material from an arbitrary path into key.
func LoadKeyFile(path string, key encoding.BinaryUnmarshaler) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.New(errs.KindIO, "store: cannot read "+path, err)
	}
	if err := key.UnmarshalBinary(data); err != nil {
		return errs.New(errs.KindIO, "store: unmarshal key failed", err)
	}
	return nil
}

// SaveGaloisKeysFile writes a full Galois key set to a single file, using
// the same count-prefixed framing the wire package uses over the network.
func SaveGaloisKeysFile(path string, keys []*rlwe.GaloisKey) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.KindIO, "store: cannot create "+path, err)
	}
	werr := wire.WriteGaloisKeys(f, keys)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return errs.New(errs.KindIO, "store: cannot close "+path, cerr)
	}
	return nil
}

// LoadGaloisKeysFile reads the file written by SaveGaloisKeysFile.
func LoadGaloisKeysFile(path string) ([]*rlwe.GaloisKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, "store: cannot open "+path, err)
	}
	defer f.Close()
	return wire.ReadGaloisKeys(f)
}
