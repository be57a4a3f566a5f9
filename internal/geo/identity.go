// Package geo implements the location-privacy primitives: the address
// identity hash and the deterministic coordinate fuzzer. Both are pure
// functions with no shared state and are safe for concurrent use.
package geo

import "strings"

// identitySeed and identityMultiplier define the frozen string hash used
// for address identities. The hash is compared across independently
// deployed services, so the algorithm must stay bit-for-bit stable: any
// change to the seed, multiplier, masking or normalization requires a
// migration of every stored hash.
const (
	identitySeed       uint32 = 5381
	identityMultiplier uint32 = 33
	identityMask       uint32 = 0x7FFFFFFF // 31 bits, avoids sign ambiguity
)

// Identify returns the stable identity hash of a physical address.
// The three fields are trimmed, lowercased and joined with '-' before
// hashing. Empty or partial fields still hash deterministically; the
// result is a similarity signal, not a validation of the address.
func Identify(street, city, postalCode string) uint32 {
	normalized := normalize(street) + "-" + normalize(city) + "-" + normalize(postalCode)
	h := identitySeed
	for i := 0; i < len(normalized); i++ {
		h = h*identityMultiplier + uint32(normalized[i])
	}
	return h & identityMask
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
