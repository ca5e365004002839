package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	store := NewSessionStore()

	_, ok := store.Get("user-1")
	assert.False(t, ok)

	sess := store.Create("user-1")
	require.NotNil(t, sess)
	assert.Equal(t, StepChoice, sess.Step)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get("user-1")
	require.True(t, ok)
	assert.Same(t, sess, got)

	store.Remove("user-1")
	_, ok = store.Get("user-1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_ResetDropsFields(t *testing.T) {
	store := NewSessionStore()

	sess := store.Create("user-1")
	sess.Step = StepAddress
	sess.Name = "דוד"
	sess.Size = "1"
	sess.PackQuantity = 3

	fresh := store.Reset("user-1")
	assert.Equal(t, &Session{Step: StepChoice}, fresh)

	got, ok := store.Get("user-1")
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.NotSame(t, sess, got)
}

func TestSessionStore_IsolatedPerUser(t *testing.T) {
	store := NewSessionStore()

	a := store.Create("user-a")
	b := store.Create("user-b")
	a.Name = "דוד"

	assert.Empty(t, b.Name)
	assert.Equal(t, 2, store.Len())

	store.Remove("user-a")
	_, ok := store.Get("user-b")
	assert.True(t, ok)
}
