package template

import (
	"strconv"
	"testing"
	"time"
)

func TestFnUUID_Unique(t *testing.T) {
	a, err := fnUUID("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := fnUUID("")
	if a == b {
		t.Errorf("expected distinct uuids, got %s twice", a)
	}
}

func TestFnTimestamp(t *testing.T) {
	before := time.Now().Unix()
	s, err := fnTimestamp("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts, _ := strconv.ParseInt(s, 10, 64)
	if ts < before || ts > time.Now().Unix() {
		t.Errorf("timestamp %d out of range", ts)
	}
}

func TestFnRandom_Range(t *testing.T) {
	for range 50 {
		s, err := fnRandom("3,6")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n, _ := strconv.Atoi(s)
		if n < 3 || n > 6 {
			t.Fatalf("random(3,6) = %d", n)
		}
	}
}

func TestCall_NotAFunction(t *testing.T) {
	for _, expr := range []string{"user", "(x)", "unknown(1)", "uuid("} {
		if _, isCall, _ := call(expr); isCall {
			t.Errorf("call(%q) reported a function call", expr)
		}
	}
}
