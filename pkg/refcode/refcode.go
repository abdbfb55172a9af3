// Package refcode generates human-readable document codes. Codes are unique
// enough for a single back office; the database unique index is the real
// guard against collisions.
package refcode

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	PrefixOrder    = "ORD"
	PrefixTransfer = "TRF"
	PrefixPurchase = "PO"
	PrefixReturn   = "RET"
)

// Generate builds a code of the form <prefix>-<unix ts>-<4 digits>.
func Generate(prefix string) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, time.Now().Unix(), rand.Intn(10000))
}
