package runid

import "testing"

func TestNewReturnsDistinctBase62Tags(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a == b {
		t.Fatalf("two calls to New produced the same tag %q", a)
	}
	for _, c := range a {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'z'
		isUpper := c >= 'A' && c <= 'Z'
		if !isDigit && !isLower && !isUpper {
			t.Fatalf("tag %q contains non-base62 character %q", a, c)
		}
	}
}
