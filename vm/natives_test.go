package vm

import "testing"

func TestArithNativeWrongArity(t *testing.T) {
	m := New()
	err := arithNative("+", func(a, b float32) float32 { return a + b })(m, []Value{NumberValue(1)})
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestYieldOutsideCoroutineIsRuntimeError(t *testing.T) {
	m := New()
	m.current = newFrame(nil, nil, nil)
	err := yieldNative(m, []Value{NumberValue(1)})
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
}

func TestCallRequiresCoroutine(t *testing.T) {
	m := New()
	err := callNative(m, []Value{NumberValue(1)})
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestDoneRequiresCoroutine(t *testing.T) {
	m := New()
	err := doneNative(m, []Value{NumberValue(1)})
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestCoroutineNativeRequiresFunc(t *testing.T) {
	m := New()
	err := coroutineNative(m, []Value{NumberValue(1)})
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestZeroNative(t *testing.T) {
	cases := []struct {
		n    float32
		want bool
	}{
		{0, true},
		{-0, true},
		{1, false},
		{-3.5, false},
	}
	for _, c := range cases {
		m := New()
		if err := zeroNative(m, []Value{NumberValue(c.n)}); err != nil {
			t.Fatalf("zeroNative(%v): unexpected error: %v", c.n, err)
		}
		got := m.pop()
		if got.Kind != KindBool || got.Bool != c.want {
			t.Errorf("zeroNative(%v) = %v, want Bool(%v)", c.n, got, c.want)
		}
	}
}

func TestZeroNativeWrongArity(t *testing.T) {
	m := New()
	err := zeroNative(m, nil)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestZeroNativeRequiresNumber(t *testing.T) {
	m := New()
	err := zeroNative(m, []Value{StringValue("x")})
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}
