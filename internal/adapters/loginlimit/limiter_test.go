package loginlimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BlocksAfterMaxFailures(t *testing.T) {
	l := New(Options{MaxFailures: 3, Window: time.Minute, Capacity: 10})
	k := Key("203.0.113.9:51234", "Ada")

	for i := 1; i <= 3; i++ {
		assert.True(t, l.Allowed(k), "attempt %d", i)
		assert.Equal(t, i, l.Fail(k))
	}
	assert.False(t, l.Allowed(k))
	assert.True(t, l.Allowed(Key("203.0.113.9:1", "grace")), "other accounts are unaffected")

	l.Reset(k)
	assert.True(t, l.Allowed(k))
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(Options{MaxFailures: 1, Window: 30 * time.Millisecond, Capacity: 10})
	k := Key("198.51.100.1", "ada")

	l.Fail(k)
	assert.False(t, l.Allowed(k))

	assert.Eventually(t, func() bool { return l.Allowed(k) }, time.Second, 10*time.Millisecond)
}

func TestKey_NormalizesInput(t *testing.T) {
	assert.Equal(t, "203.0.113.9|ada", Key("203.0.113.9:443", "  ADA "))
	assert.Equal(t, "[::1|ada", Key("[::1", "ada"))
	assert.Equal(t, "::1|ada", Key("[::1]:8080", "ada"))
}

func TestNew_Defaults(t *testing.T) {
	l := New(Options{})
	assert.Equal(t, 5, l.max)
}
