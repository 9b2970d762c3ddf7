package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psi.conf")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesKeyValues(t *testing.T) {
	path := writeTempConfig(t, "# comment\nip=127.0.0.1\nport_setup=9000\n\nti=40961,65537\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ip, err := c.String("ip")
	if err != nil || ip != "127.0.0.1" {
		t.Fatalf("ip = %q, %v", ip, err)
	}
	port, err := c.Uint64("port_setup")
	if err != nil || port != 9000 {
		t.Fatalf("port_setup = %d, %v", port, err)
	}
	ti, err := c.Uint64List("ti")
	if err != nil || len(ti) != 2 || ti[0] != 40961 || ti[1] != 65537 {
		t.Fatalf("ti = %v, %v", ti, err)
	}
}

func TestMissingKeyIsParameterError(t *testing.T) {
	path := writeTempConfig(t, "ip=127.0.0.1\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.String("port_setup"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestMalformedLineRejected(t *testing.T) {
	path := writeTempConfig(t, "not-a-kv-pair\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestDefaults(t *testing.T) {
	path := writeTempConfig(t, "ip=127.0.0.1\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Uint64Default("num_threads", 4); got != 4 {
		t.Fatalf("Uint64Default = %d, want 4", got)
	}
	if got := c.StringDefault("path", "./data"); got != "./data" {
		t.Fatalf("StringDefault = %q", got)
	}
}
