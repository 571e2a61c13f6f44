package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	be "github.com/Youniwemi/HashTable/backend"
)

func TestBatchOps(t *testing.T) {
	ctx := context.Background()
	b := New()

	ok, err := b.ConditionalSet(ctx, "a", "1", be.SetOptions{})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = b.ConditionalSet(ctx, "b", "", be.SetOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := b.BatchGet(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": ""}, got)

	ex, err := b.BatchExists(ctx, []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "missing": false}, ex)

	n, err := b.BatchDelete(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestConditionalSetRequireExisting(t *testing.T) {
	ctx := context.Background()
	b := New()

	ok, err := b.ConditionalSet(ctx, "k", "v", be.SetOptions{RequireExisting: true})
	require.NoError(t, err)
	assert.False(t, ok, "XX write against a missing key must fail")

	_, err = b.ConditionalSet(ctx, "k", "v1", be.SetOptions{})
	require.NoError(t, err)
	ok, err = b.ConditionalSet(ctx, "k", "v2", be.SetOptions{RequireExisting: true})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := b.BatchGet(ctx, []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, "v2", got["k"])
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.ConditionalSet(ctx, "short", "v", be.SetOptions{TTL: 20 * time.Millisecond})
	require.NoError(t, err)

	ex, err := b.BatchExists(ctx, []string{"short"})
	require.NoError(t, err)
	assert.True(t, ex["short"])

	time.Sleep(40 * time.Millisecond)
	ex, err = b.BatchExists(ctx, []string{"short"})
	require.NoError(t, err)
	assert.False(t, ex["short"])
}

func TestSetIfAbsentAndExpire(t *testing.T) {
	ctx := context.Background()
	b := New()

	ok, err := b.SetIfAbsent(ctx, "lock", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.SetIfAbsent(ctx, "lock", "1")
	require.NoError(t, err)
	assert.False(t, ok, "second conditional write must lose")

	ok, err = b.Expire(ctx, "lock", 20*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	ok, err = b.SetIfAbsent(ctx, "lock", "1")
	require.NoError(t, err)
	assert.True(t, ok, "expired key should be reacquirable")

	ok, err = b.Expire(ctx, "never-set", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanByPattern(t *testing.T) {
	ctx := context.Background()
	b := New()

	for _, k := range []string{"app_a", "app_b", "other_a", "app*lit"} {
		_, err := b.ConditionalSet(ctx, k, "v", be.SetOptions{})
		require.NoError(t, err)
	}

	got, err := b.ScanByPattern(ctx, "app_*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app_a", "app_b"}, got)

	// escaped metacharacter matches literally
	got, err = b.ScanByPattern(ctx, `app\**`)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app*lit"}, got)
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*", "anything", true},
		{"app_*", "app_x", true},
		{"app_*", "bpp_x", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a[bc]d", "acd", true},
		{"a[bc]d", "aed", false},
		{"a[^bc]d", "aed", true},
		{"a[0-9]z", "a5z", true},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{"*_suffix", "long_name_suffix", true},
		{"", "", true},
		{"", "x", false},
		{"a[", "a", false}, // unterminated class
	}
	for _, c := range cases {
		assert.Equal(t, c.want, globMatch(c.pattern, c.name), "globMatch(%q, %q)", c.pattern, c.name)
	}
}

func TestCapabilities(t *testing.T) {
	b := New()
	assert.False(t, b.Persistent())
	require.NoError(t, b.Close(context.Background()))
}
