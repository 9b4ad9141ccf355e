// Package id mints identifiers for records the local store owns. The Daml
// ledger assigns its own contract ids.
package id

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var reID = regexp.MustCompile(`^[a-f0-9]{32}$`)

// New returns a random (v4) UUID as 32 lowercase hex characters, which fits
// the size:32 id columns.
func New() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Valid reports whether s has the shape New produces.
func Valid(s string) bool { return reID.MatchString(s) }
