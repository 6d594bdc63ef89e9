package describe

import (
	"context"
	"errors"
	"testing"
)

type countingSource struct {
	calls int
	fail  bool
}

func (s *countingSource) Describe(ctx context.Context, key string) (string, error) {
	s.calls++
	if s.fail {
		return "", errors.New("catalog unavailable")
	}
	return "about " + key, nil
}

func TestCacheHit(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src)
	for i := 0; i < 3; i++ {
		text, err := c.Get(context.Background(), "kommuner")
		if err != nil || text != "about kommuner" {
			t.Fatalf("Get = %q, %v", text, err)
		}
	}
	if src.calls != 1 || c.Len() != 1 {
		t.Fatalf("calls = %d, len = %d", src.calls, c.Len())
	}
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	src := &countingSource{fail: true}
	c := NewCache(src)
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
	src.fail = false
	if text, err := c.Get(context.Background(), "k"); err != nil || text != "about k" {
		t.Fatalf("retry = %q, %v", text, err)
	}
}

func TestNilSource(t *testing.T) {
	text, err := NewCache(nil).Get(context.Background(), "k")
	if text != "" || err != nil {
		t.Fatalf("Get = %q, %v", text, err)
	}
}
