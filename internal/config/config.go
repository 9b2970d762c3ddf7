// Package config reads the key=value configuration files consumed by the
// setup and intersect commands.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

// Config is a flat key=value store. Lines starting with '#' and blank lines
// are ignored; everything else must be "key=value".
type Config struct {
	values map[string]string
}

// Load reads and parses a configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.KindIO, "config: cannot open "+path, err)
	}
	defer f.Close()

	c := &Config{values: map[string]string{}}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return nil, errs.New(errs.KindParameter, fmt.Sprintf("config: %s:%d: missing '='", path, lineNo), nil)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key == "" {
			return nil, errs.New(errs.KindParameter, fmt.Sprintf("config: %s:%d: empty key", path, lineNo), nil)
		}
		c.values[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.New(errs.KindIO, "config: read failed for "+path, err)
	}
	return c, nil
}

func (c *Config) String(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", errs.New(errs.KindParameter, "config: missing key "+key, nil)
	}
	return v, nil
}

func (c *Config) StringDefault(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

func (c *Config) Uint64(key string) (uint64, error) {
	v, err := c.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errs.New(errs.KindParameter, "config: key "+key+" is not a uint64", err)
	}
	return n, nil
}

func (c *Config) Uint64Default(key string, def uint64) uint64 {
	n, err := c.Uint64(key)
	if err != nil {
		return def
	}
	return n
}

func (c *Config) Int(key string) (int, error) {
	n, err := c.Uint64(key)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Uint64List parses a comma-separated list of decimal uint64s, used for the
// "ti" CRT-moduli key.
func (c *Config) Uint64List(key string) ([]uint64, error) {
	v, err := c.String(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(v, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, errs.New(errs.KindParameter, "config: key "+key+" has a non-numeric entry", err)
		}
		out = append(out, n)
	}
	return out, nil
}
