package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_codeCache_seed(t *testing.T) {
	t.Run("seeds an empty cache from a non-empty map", func(t *testing.T) {
		cc := newCodeCache()
		cc.seed(map[string]string{"python": "print(1)", "cpp": "int main() {}"})
		assert.Equal(t, 2, cc.len(), "expected both persisted entries to be loaded")
		assert.Equal(t, "print(1)", cc.entries()["python"], "expected persisted text to be cached")
	})

	t.Run("does not overwrite a populated cache", func(t *testing.T) {
		cc := newCodeCache()
		cc.set("python", "print(2)")
		cc.seed(map[string]string{"python": "print(1)"})
		assert.Equal(t, "print(2)", cc.entries()["python"], "expected cached text to stay fresher than the store")
	})

	t.Run("empty persisted map is a no-op", func(t *testing.T) {
		cc := newCodeCache()
		cc.seed(nil)
		assert.Zero(t, cc.len(), "expected the cache to stay empty")
	})
}

func Test_codeCache_set(t *testing.T) {
	cc := newCodeCache()

	cc.set("javascript", "console.log(1)")
	assert.Equal(t, "console.log(1)", cc.entries()["javascript"], "expected the slot to be created on demand")

	cc.set("javascript", "console.log(2)")
	assert.Equal(t, "console.log(2)", cc.entries()["javascript"], "expected the last write to win")
	assert.Equal(t, 1, cc.len(), "expected one slot per language")
}
