package service

import (
	ahocorasick "github.com/BobuSumisu/aho-corasick"
	"github.com/spf13/viper"
)

// Screener rejects source containing denylisted tokens. It is a cheap filter, the
// execution environment is the actual isolation boundary.
type Screener struct {
	trie *ahocorasick.Trie // nil when the denylist is empty
}

// NewScreener builds the matcher from app.sandbox.denylist.
func NewScreener(conf *viper.Viper) *Screener {
	return NewScreenerWithTokens(conf.GetStringSlice("app.sandbox.denylist"))
}

func NewScreenerWithTokens(tokens []string) *Screener {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			words = append(words, t)
		}
	}
	if len(words) == 0 {
		return &Screener{}
	}
	return &Screener{trie: ahocorasick.NewTrieBuilder().AddStrings(words).Build()}
}

// Screen returns the first denylisted token found in code. The trie is read-only after
// Build, so concurrent calls are safe.
func (s *Screener) Screen(code string) (string, bool) {
	if s.trie == nil {
		return "", false
	}
	m := s.trie.MatchFirstString(code)
	if m == nil {
		return "", false
	}
	return m.MatchString(), true
}
