package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_EmptyByDefault(t *testing.T) {
	var l Latest[string]
	v, ok := l.Get()
	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.False(t, l.IsCurrent(0))
}

func TestLatest_TokensIncrease(t *testing.T) {
	var l Latest[int]
	a := l.Issue()
	b := l.Issue()
	assert.Greater(t, uint64(b), uint64(a))
	assert.NotZero(t, a)
	assert.Equal(t, b, l.LastIssued())
}

func TestLatest_OutOfOrderResponseIsDiscarded(t *testing.T) {
	var l Latest[string]

	older := l.Issue()
	newer := l.Issue()

	// the newer request resolves first
	require.True(t, l.Commit(newer, "second"))
	// the older request resolves late and must not overwrite
	assert.False(t, l.Commit(older, "first"))

	v, ok := l.Get()
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, uint64(1), l.Stale())
}

func TestLatest_SupersededBeforeResolving(t *testing.T) {
	var l Latest[string]

	first := l.Issue()
	_ = l.Issue()

	assert.False(t, l.Commit(first, "first"))
	_, ok := l.Get()
	assert.False(t, ok)
}

func TestLatest_CommitTwiceWithSameToken(t *testing.T) {
	var l Latest[int]
	tok := l.Issue()
	require.True(t, l.Commit(tok, 1))
	assert.False(t, l.Commit(tok, 2))

	snap, ok := l.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 1, snap.Value)
	assert.Equal(t, tok, snap.Token)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestLatest_ConcurrentCommitsKeepNewest(t *testing.T) {
	var l Latest[int]

	tokens := make([]Token, 50)
	for i := range tokens {
		tokens[i] = l.Issue()
	}

	var wg sync.WaitGroup
	for i, tok := range tokens {
		wg.Add(1)
		go func(i int, tok Token) {
			defer wg.Done()
			l.Commit(tok, i)
		}(i, tok)
	}
	wg.Wait()

	v, ok := l.Get()
	require.True(t, ok)
	assert.Equal(t, len(tokens)-1, v)
	assert.Equal(t, uint64(len(tokens)-1), l.Stale())
}
