// Package cache holds computed text results (translations, suggestions) keyed
// by source, target and a hash of the input content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type Key struct {
	Source      string
	Target      string
	ContentHash string
}

// NewKey hashes content so arbitrarily long inputs make fixed-size keys.
func NewKey(source, target, content string) Key {
	sum := sha256.Sum256([]byte(content))
	return Key{Source: source, Target: target, ContentHash: hex.EncodeToString(sum[:])}
}

func (k Key) String() string {
	return fmt.Sprintf("%s->%s:%s", k.Source, k.Target, k.ContentHash)
}

type Entry struct {
	Text     string `json:"text"`
	Detected string `json:"detected"`
}

// Store is implemented by every cache tier.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool)
	Set(ctx context.Context, key Key, entry Entry)
}
