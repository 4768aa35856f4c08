package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core/account"
)

func TestStore_lifecycle(t *testing.T) {
	store := NewStore()
	acc := account.Account{ID: 1, Username: "mary"}

	sess := store.Create(acc)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "mary", sess.Username)

	got, ok := store.Get(sess.ID)
	require.True(t, ok, "session should be open after Create")
	assert.Equal(t, sess, got)

	other := store.Create(acc)
	assert.NotEqual(t, sess.ID, other.ID, "each login opens its own session")

	store.Delete(sess.ID)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok, "session should be closed after Delete")

	_, ok = store.Get(other.ID)
	assert.True(t, ok, "deleting one session leaves the others open")

	store.Delete("unknown") // no-op
	assert.Equal(t, 1, store.Len())
}

func TestStore_concurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := store.Create(account.Account{Username: "t"})
			store.Get(sess.ID)
			store.Delete(sess.ID)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, store.Len())
}
