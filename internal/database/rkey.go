package database

import (
	"fmt"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Collection names used to tag out-of-line rows such as images.
const (
	CollectionBean       = "bean"
	CollectionGrinder    = "grinder"
	CollectionBrewer     = "brewer"
	CollectionExtraction = "extraction"
)

// RKeyGenerator hands out record keys. Keys are TIDs: 13 base32 characters
// that sort by creation time and never repeat within one generator.
type RKeyGenerator struct {
	clock syntax.TIDClock
}

// NewRKeyGenerator creates a generator for the given clock id (0-1023).
func NewRKeyGenerator(clockID uint) *RKeyGenerator {
	return &RKeyGenerator{clock: syntax.NewTIDClock(clockID)}
}

// Next returns a fresh record key.
func (g *RKeyGenerator) Next() string {
	return g.clock.Next().String()
}

// ValidateRKey checks that rkey is a well-formed TID.
func ValidateRKey(rkey string) error {
	if _, err := syntax.ParseTID(rkey); err != nil {
		return fmt.Errorf("invalid rkey %q: %w", rkey, err)
	}
	return nil
}
