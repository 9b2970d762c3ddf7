package config

import (
	"fmt"
	"strings"
)

// ComputeParams is the network/concurrency knobs shared by every collaborator.
type ComputeParams struct {
	IP            string
	PortSetup     int
	PortIntersect int
	RcvBufSize    int
	SndBufSize    int
	NumThreads    int
}

func newComputeParams(c *Config) (ComputeParams, error) {
	ip, err := c.String("ip")
	if err != nil {
		return ComputeParams{}, err
	}
	portSetup, err := c.Int("port_setup")
	if err != nil {
		return ComputeParams{}, err
	}
	portIntersect, err := c.Int("port_intersect")
	if err != nil {
		return ComputeParams{}, err
	}
	rcvbuf, err := c.Int("rcvbuf_size")
	if err != nil {
		return ComputeParams{}, err
	}
	sndbuf, err := c.Int("sndbuf_size")
	if err != nil {
		return ComputeParams{}, err
	}
	numThreads, err := c.Int("num_threads")
	if err != nil {
		return ComputeParams{}, err
	}
	return ComputeParams{
		IP:            ip,
		PortSetup:     portSetup,
		PortIntersect: portIntersect,
		RcvBufSize:    rcvbuf,
		SndBufSize:    sndbuf,
		NumThreads:    numThreads,
	}, nil
}

// EncryptionParams is one party's key-file names and BFV parameter set.
type EncryptionParams struct {
	FilenameGK string
	FilenameRK string
	FilenameSK string
	LogN       int
	LogQi      []int
	Ti         []uint64
	Eta        uint64
}

// N returns the ring dimension 2^LogN.
func (e EncryptionParams) N() int { return 1 << e.LogN }

func newEncryptionParams(c *Config, path, key string) (EncryptionParams, error) {
	keys, err := c.String(key + "_keys")
	if err != nil {
		return EncryptionParams{}, err
	}
	logn, err := c.Int(key + "_logn")
	if err != nil {
		return EncryptionParams{}, err
	}
	logqiRaw, err := c.Uint64List(key + "_logqi")
	if err != nil {
		return EncryptionParams{}, err
	}
	logqi := make([]int, len(logqiRaw))
	for i, v := range logqiRaw {
		logqi[i] = int(v)
	}
	ti, err := c.Uint64List("ti")
	if err != nil {
		return EncryptionParams{}, err
	}
	eta, err := c.Uint64(key + "_eta")
	if err != nil {
		return EncryptionParams{}, err
	}
	return EncryptionParams{
		FilenameGK: path + keys + ".gk.key",
		FilenameRK: path + keys + ".rk.key",
		FilenameSK: path + keys + ".sk.key",
		LogN:       logn,
		LogQi:      logqi,
		Ti:         ti,
		Eta:        eta,
	}, nil
}

// SetParams names one or more (comma-separated) element-set files and their
// bit width.
type SetParams struct {
	Filenames []string
	BitSize   uint64
}

func newSetParams(c *Config, path string) (SetParams, error) {
	raw, err := c.String("set")
	if err != nil {
		return SetParams{}, err
	}
	var filenames []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		filenames = append(filenames, path+f)
	}
	bitSize, err := c.Uint64("bit_size")
	if err != nil {
		return SetParams{}, err
	}
	return SetParams{Filenames: filenames, BitSize: bitSize}, nil
}

// TableParams sizes and names the Cuckoo hash table persisted to disk.
type TableParams struct {
	Filename  string
	NumHashes uint64
	TableSize uint64
	MaxData   uint64
	MaxDepth  uint64
	NumTables uint64
}

func newTableParams(c *Config, path string) (TableParams, error) {
	name, err := c.String("table")
	if err != nil {
		return TableParams{}, err
	}
	numHashes, err := c.Uint64("num_hashes")
	if err != nil {
		return TableParams{}, err
	}
	ti, err := c.Uint64List("ti")
	if err != nil {
		return TableParams{}, err
	}
	numTables := uint64(len(ti))
	logTableSize, err := c.Uint64("log_table_size")
	if err != nil {
		return TableParams{}, err
	}
	if numTables == 0 || logTableSize < numTables-1 {
		return TableParams{}, fmt.Errorf("config: log_table_size too small for %d CRT moduli", numTables)
	}
	tableSize := uint64(1) << (logTableSize - (numTables - 1))
	bitSize, err := c.Uint64("bit_size")
	if err != nil {
		return TableParams{}, err
	}
	maxData := (uint64(1) << bitSize) - 1
	maxDepth, err := c.Uint64("max_depth")
	if err != nil {
		return TableParams{}, err
	}
	return TableParams{
		Filename:  path + name,
		NumHashes: numHashes,
		TableSize: tableSize,
		MaxData:   maxData,
		MaxDepth:  maxDepth,
		NumTables: numTables,
	}, nil
}

// Params bundles every parameter group parsed from one protocol configuration
// file, mirroring the shared parameter-loading the setup and intersect
// collaborators all depend on.
type Params struct {
	Compute  ComputeParams
	Sender   EncryptionParams
	Receiver EncryptionParams
	Set      SetParams
	Table    TableParams
}

// LoadParams reads path and builds every parameter group a setup or
// intersect collaborator needs. The "path" key is mandatory and is used as
// the base directory for every other file the configuration names.
func LoadParams(path string) (Params, error) {
	c, err := Load(path)
	if err != nil {
		return Params{}, err
	}
	base, err := c.String("path")
	if err != nil {
		return Params{}, err
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	compute, err := newComputeParams(c)
	if err != nil {
		return Params{}, err
	}
	set, err := newSetParams(c, base)
	if err != nil {
		return Params{}, err
	}
	sender, err := newEncryptionParams(c, base, "sender")
	if err != nil {
		return Params{}, err
	}
	receiver, err := newEncryptionParams(c, base, "receiver")
	if err != nil {
		return Params{}, err
	}
	table, err := newTableParams(c, base)
	if err != nil {
		return Params{}, err
	}

	return Params{
		Compute:  compute,
		Sender:   sender,
		Receiver: receiver,
		Set:      set,
		Table:    table,
	}, nil
}
