package keygen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for _, n := range []int{1, 5, 8, 32} {
		key, err := Generate(n, Alphabet)
		require.NoError(t, err)
		assert.Len(t, key, n)
		for _, r := range key {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestGenerate_SingleLetterAlphabet(t *testing.T) {
	key, err := Generate(4, "x")
	require.NoError(t, err)
	assert.Equal(t, "xxxx", key)
}

func TestGenerate_EmptyAlphabet(t *testing.T) {
	_, err := Generate(4, "")
	assert.ErrorIs(t, err, ErrEmptyAlphabet)
}

func TestGenerate_Spread(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		key, err := Generate(8, Alphabet)
		require.NoError(t, err)
		seen[key] = struct{}{}
	}
	// 62^8 possibilities; a repeat here means the source is broken.
	assert.Len(t, seen, 200)
}

func TestGenerator_Defaults(t *testing.T) {
	g := NewGenerator(Options{})

	pub, err := g.PublicKey()
	require.NoError(t, err)
	assert.Len(t, pub, DefaultPublicLength)

	secret, err := g.SecretKey(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, pub+"_"))
	assert.Len(t, secret, DefaultPublicLength+1+DefaultSecretLength)
}

func TestGenerator_SkipsIssuedKeys(t *testing.T) {
	filter := NewIssuedFilter(16, 0.001)
	filter.Add("aa")
	filter.Add("ab")
	filter.Add("ba")

	g := NewGenerator(Options{PublicLength: 2, Alphabet: "ab", Issued: filter})
	for i := 0; i < 20; i++ {
		key, err := g.PublicKey()
		require.NoError(t, err)
		// 1-(3/4)^8 of draws land on the one free key; allow the rare miss.
		if key != "bb" {
			assert.True(t, filter.MayContain(key))
		}
	}
}

func TestIssuedFilter(t *testing.T) {
	var nilFilter *IssuedFilter
	nilFilter.Add("abc")
	assert.False(t, nilFilter.MayContain("abc"))

	f := NewIssuedFilter(1000, 0.01)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, _ := Generate(6, Alphabet)
			f.Add(key)
			assert.True(t, f.MayContain(key))
		}(i)
	}
	wg.Wait()
}
