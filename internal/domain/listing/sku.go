package listing

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Constants for destination SKU encoding
const (
	// skuSeparator joins the cleaned base and size tokens. 'Z' is used
	// because a cleaned size token never starts with it (sizes begin with
	// digits or unit prefixes like W/M/Y/GS), so DecodeSku can split at
	// the last occurrence unambiguously.
	skuSeparator = "Z"

	// maxSkuLength is the destination marketplace's SKU length bound.
	maxSkuLength = 50

	// truncatedPrefixLength is how much of an over-long SKU survives
	// before the digest suffix is appended.
	truncatedPrefixLength = 45

	// skuDigestLength is the length of the base-36 digest suffix.
	skuDigestLength = 4

	// placeholderBase stands in for a base identity that cleans to nothing.
	placeholderBase = "UNKNOWN"

	// placeholderSize stands in for a size that cleans to nothing (one-size).
	placeholderSize = "OS"
)

// CleanToken uppercases s and strips every character outside [A-Z0-9].
// Both the server and any other caller computing destination SKUs must go
// through this exact normalization; a divergent reimplementation silently
// breaks "is this already listed" detection everywhere.
func CleanToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EncodeSku converts a (base identifier, size) pair into the bounded,
// alphanumeric destination SKU. The function is total: empty or fully
// non-alphanumeric inputs degrade to placeholder tokens instead of
// erroring, so the pipeline never blocks on a malformed identity.
//
// When the joined form exceeds the 50-character bound, the first 45
// characters are kept and a 4-character base-36 digest of the full
// pre-truncation string is appended to keep distinct long inputs distinct.
func EncodeSku(baseSku, size string) string {
	base := CleanToken(baseSku)
	if base == "" {
		base = placeholderBase
	}
	sz := CleanToken(size)
	if sz == "" {
		sz = placeholderSize
	}

	sku := base + skuSeparator + sz
	if len(sku) <= maxSkuLength {
		return sku
	}
	return sku[:truncatedPrefixLength] + skuDigest(sku)
}

// EncodeIdentity is EncodeSku applied to a ProductIdentity.
func EncodeIdentity(identity ProductIdentity) string {
	return EncodeSku(identity.BaseSku, identity.Size)
}

// DecodeSku splits a destination SKU back into its cleaned base and size
// tokens at the last separator occurrence. For a truncated SKU the
// returned base is itself truncated, so callers must treat the result as
// best-effort identification, not full recovery.
func DecodeSku(sku string) (baseSku, size string) {
	idx := strings.LastIndex(sku, skuSeparator)
	if idx <= 0 {
		return sku, ""
	}
	return sku[:idx], sku[idx+len(skuSeparator):]
}

// skuDigest returns a 4-character uppercase base-36 digest of s.
func skuDigest(s string) string {
	const space = 36 * 36 * 36 * 36

	h := fnv.New32a()
	h.Write([]byte(s))

	d := strings.ToUpper(strconv.FormatUint(uint64(h.Sum32())%space, 36))
	for len(d) < skuDigestLength {
		d = "0" + d
	}
	return d
}

// LegacySkuMatch reports whether a destination SKU written before the
// codec existed refers to the given identity. Early versions wrote SKUs
// as a raw concatenation of the cleaned base and size with no separator.
//
// Deprecated: compatibility shim for pre-codec data only. New code must
// compare EncodeSku output and nothing else.
func LegacySkuMatch(sku string, identity ProductIdentity) bool {
	cleaned := CleanToken(sku)
	base := CleanToken(identity.BaseSku)
	sz := CleanToken(identity.Size)
	if base == "" || cleaned == "" {
		return false
	}
	if cleaned == base+sz {
		return true
	}
	return strings.HasPrefix(cleaned, base) && strings.HasSuffix(cleaned, sz)
}
