// Package keygen produces the random public and secret keys of a link.
package keygen

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// Alphabet is the default mixed-case alphanumeric key alphabet.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	DefaultPublicLength = 5
	DefaultSecretLength = 8

	// candidates tried against the issued filter before giving up on it
	maxFilterRetries = 8
)

var ErrEmptyAlphabet = errors.New("keygen: empty alphabet")

// Generate returns length characters drawn uniformly, with replacement, from
// alphabet. Uniqueness is the caller's concern.
func Generate(length int, alphabet string) (string, error) {
	if alphabet == "" {
		return "", ErrEmptyAlphabet
	}
	if length <= 0 {
		return "", nil
	}

	n := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// Options configures a Generator.
type Options struct {
	PublicLength int
	SecretLength int
	Alphabet     string

	// Issued, when set, lets PublicKey skip candidates that may already exist.
	Issued *IssuedFilter
}

// Generator creates public and secret keys for new links.
type Generator struct {
	publicLength int
	secretLength int
	alphabet     string
	issued       *IssuedFilter
}

// NewGenerator applies defaults for zero-valued options.
func NewGenerator(opts Options) *Generator {
	g := &Generator{
		publicLength: opts.PublicLength,
		secretLength: opts.SecretLength,
		alphabet:     opts.Alphabet,
		issued:       opts.Issued,
	}
	if g.publicLength <= 0 {
		g.publicLength = DefaultPublicLength
	}
	if g.secretLength <= 0 {
		g.secretLength = DefaultSecretLength
	}
	if g.alphabet == "" {
		g.alphabet = Alphabet
	}
	return g
}

// PublicKey returns a random public key. Candidates the issued filter reports
// as possibly taken are redrawn a bounded number of times; the store's unique
// index stays the final arbiter.
func (g *Generator) PublicKey() (string, error) {
	var key string
	for i := 0; i < maxFilterRetries; i++ {
		k, err := Generate(g.publicLength, g.alphabet)
		if err != nil {
			return "", err
		}
		key = k
		if !g.issued.MayContain(key) {
			break
		}
	}
	return key, nil
}

// SecretKey returns "<publicKey>_<random>". The prefix only makes secrets
// recognizable; the random suffix is the credential.
func (g *Generator) SecretKey(publicKey string) (string, error) {
	suffix, err := Generate(g.secretLength, g.alphabet)
	if err != nil {
		return "", err
	}
	return publicKey + "_" + suffix, nil
}

// Remember records key as issued.
func (g *Generator) Remember(key string) {
	g.issued.Add(key)
}
