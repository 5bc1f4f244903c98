// Package region translates spreadsheet region tokens into the 2-letter
// billing-region codes the platform understands.
package region

import (
	"strings"

	"github.com/biter777/countries"
)

// overrides maps tokens the standard ISO 3166-1 table does not cover to
// the region codes the billing platform uses. Kosovo is the known case:
// sheets export XKS, the platform bills it as XK.
var overrides = map[string]string{
	"XKS": "XK",
	"XK":  "XK",
}

// ToISO2 translates an ISO3 (or already-ISO2) region token to the
// 2-letter billing-region code. The translation is pure: the same token
// always resolves to the same code or consistently fails.
func ToISO2(token string) (string, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return "", false
	}

	if code, ok := overrides[token]; ok {
		return code, true
	}

	country := countries.ByName(token)
	if country == countries.Unknown {
		return "", false
	}

	iso2 := country.Alpha2()
	if len(iso2) != 2 {
		return "", false
	}
	return iso2, true
}
