package fxbuf

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestPoolReusesAndCounts(t *testing.T) {
	pool := NewPool(4)
	desc := NewDescriptor(8, 8)

	b1, err := pool.Get(desc)
	if err != nil {
		t.Fatal(err)
	}
	b1.Fill(mgl32.Vec4{1, 1, 1, 1})
	if pool.Live() != 1 {
		t.Errorf("Live() = %d, want 1", pool.Live())
	}

	pool.Put(b1)
	b2, _ := pool.Get(desc)
	if b2 != b1 {
		t.Error("Get did not reuse the idle buffer")
	}
	if got := b2.Get(3, 3); got != (mgl32.Vec4{}) {
		t.Errorf("reused buffer not cleared: %v", got)
	}

	pool.Put(b2)
	st := pool.Stats()
	if st.Live != 0 || st.Allocated != 1 || st.Gets != 2 || st.Puts != 2 || st.Idle != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestPoolRejectsBadDescriptor(t *testing.T) {
	pool := NewPool(0)
	if _, err := pool.Get(NewDescriptor(0, 0)); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("Get(0x0) err = %v, want ErrInvalidDescriptor", err)
	}
	if pool.Live() != 0 {
		t.Errorf("failed Get changed Live() to %d", pool.Live())
	}
}

func TestPoolBucketLimit(t *testing.T) {
	pool := NewPool(1)
	desc := NewDescriptor(2, 2)

	a, _ := pool.Get(desc)
	b, _ := pool.Get(desc)
	pool.Put(a)
	pool.Put(b)

	if idle := pool.Stats().Idle; idle != 1 {
		t.Errorf("Idle = %d, want 1", idle)
	}
}
