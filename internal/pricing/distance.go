package pricing

import "strings"

// ZIP prefix agreement maps to USPS region granularity: no shared digits
// means different national areas, five shared digits means the same ZIP.
var prefixDistanceMiles = [6]int{1200, 500, 150, 45, 12, 0}

// EstimateZipDistance returns a coarse mileage estimate between two ZIP
// codes. The estimate is symmetric and identical ZIPs are always zero.
func EstimateZipDistance(a, b string) int {
	a = normalizeZip(a)
	b = normalizeZip(b)
	if a == "" || b == "" {
		return prefixDistanceMiles[0]
	}
	if a == b {
		return 0
	}

	shared := 0
	for shared < len(a) && shared < len(b) && a[shared] == b[shared] {
		shared++
	}
	if shared > 5 {
		shared = 5
	}
	return prefixDistanceMiles[shared]
}

func normalizeZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if idx := strings.IndexByte(zip, '-'); idx >= 0 {
		zip = zip[:idx]
	}
	if len(zip) != 5 {
		return ""
	}
	for i := 0; i < len(zip); i++ {
		if zip[i] < '0' || zip[i] > '9' {
			return ""
		}
	}
	return zip
}
