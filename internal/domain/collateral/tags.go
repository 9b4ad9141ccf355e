package collateral

import (
	"fmt"
	"strings"
)

// Ledger variant names, as in "Main:Crypto".
var ledgerNames = map[AssetType]string{
	AssetCryptocurrency: "Crypto",
	AssetRealEstate:     "RealEstate",
	AssetSecurities:     "Securities",
	AssetCommodities:    "Commodities",
}

// ParseAssetTag maps a ledger tag onto an AssetType and fails on anything it
// does not recognise. Matching is by substring so both "Crypto" and
// "Main:Crypto" resolve; display labels ("Real Estate") are accepted too.
func ParseAssetTag(tag string) (AssetType, error) {
	t := strings.ReplaceAll(strings.TrimSpace(tag), " ", "")
	switch {
	case strings.Contains(t, "Crypto"):
		return AssetCryptocurrency, nil
	case strings.Contains(t, "RealEstate"):
		return AssetRealEstate, nil
	case strings.Contains(t, "Securities"):
		return AssetSecurities, nil
	case strings.Contains(t, "Commodities"):
		return AssetCommodities, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAssetTag, tag)
}

// MapAssetTag is the permissive form of ParseAssetTag: unknown tags become
// Cryptocurrency, which is what the ledger's older encoding relies on.
// The second result reports whether the default was applied.
func MapAssetTag(tag string) (AssetType, bool) {
	a, err := ParseAssetTag(tag)
	if err != nil {
		return AssetCryptocurrency, true
	}
	return a, false
}

// ToLedgerAssetTag is the inverse mapping used when creating contracts.
func ToLedgerAssetTag(a AssetType) string {
	name, ok := ledgerNames[a]
	if !ok {
		name = ledgerNames[AssetCryptocurrency]
	}
	return "Main:" + name
}
