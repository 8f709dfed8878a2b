// Package addressing converts marketplace address and buyer name
// structures into local profile address fields.
package addressing

import (
	"strings"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/order"
)

// Translator maps remote addresses and names to local profile fields.
// Translation never fails; unknown values pass through unchanged.
type Translator struct {
	convertStates bool
}

// NewTranslator creates a translator. When convertStates is true,
// full US state names in the administrative area are converted to
// their two-letter codes.
func NewTranslator(convertStates bool) *Translator {
	return &Translator{convertStates: convertStates}
}

// Translate maps a remote shipping address and buyer name to a local
// address and name
func (t *Translator) Translate(remote amws.Address, remoteName string) (order.Address, order.Name) {
	addr := order.Address{
		CountryCode:        remote.CountryCode,
		AdministrativeArea: remote.StateOrRegion,
		Locality:           remote.City,
		PostalCode:         remote.PostalCode,
		AddressLine1:       remote.AddressLine1,
		AddressLine2:       mergeLines(remote.AddressLine2, remote.AddressLine3),
	}

	if t.convertStates && strings.EqualFold(addr.CountryCode, "US") {
		addr.AdministrativeArea = normalizeUSState(addr.AdministrativeArea)
	}

	return addr, SplitName(remoteName)
}

// mergeLines collapses the second and third remote address lines into
// the single local second line
func mergeLines(line2, line3 string) string {
	switch {
	case line3 == "":
		return line2
	case line2 == "":
		return line3
	default:
		return line2 + ", " + line3
	}
}

// SplitName tokenizes a full name on whitespace. The last token is
// the family name; the remaining tokens joined with spaces form the
// given name, which is empty when only one token exists.
func SplitName(full string) order.Name {
	tokens := strings.Fields(full)
	if len(tokens) == 0 {
		return order.Name{}
	}
	return order.Name{
		GivenName:  strings.Join(tokens[:len(tokens)-1], " "),
		FamilyName: tokens[len(tokens)-1],
	}
}

// normalizeUSState converts a full US state name to its two-letter
// code. Values that already are known codes, and values with no
// match, are returned unchanged.
func normalizeUSState(value string) string {
	upper := strings.ToUpper(value)
	for _, code := range usStateCodes {
		if code == upper {
			return value
		}
	}
	if code, ok := usStateNames[strings.ToLower(value)]; ok {
		return code
	}
	return value
}

var usStateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL",
	"GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME",
	"MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH",
	"NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI",
	"WY", "AS", "GU", "MP", "PR", "VI",
}

var usStateNames = map[string]string{
	"alabama":                  "AL",
	"alaska":                   "AK",
	"arizona":                  "AZ",
	"arkansas":                 "AR",
	"california":               "CA",
	"colorado":                 "CO",
	"connecticut":              "CT",
	"delaware":                 "DE",
	"district of columbia":     "DC",
	"florida":                  "FL",
	"georgia":                  "GA",
	"hawaii":                   "HI",
	"idaho":                    "ID",
	"illinois":                 "IL",
	"indiana":                  "IN",
	"iowa":                     "IA",
	"kansas":                   "KS",
	"kentucky":                 "KY",
	"louisiana":                "LA",
	"maine":                    "ME",
	"maryland":                 "MD",
	"massachusetts":            "MA",
	"michigan":                 "MI",
	"minnesota":                "MN",
	"mississippi":              "MS",
	"missouri":                 "MO",
	"montana":                  "MT",
	"nebraska":                 "NE",
	"nevada":                   "NV",
	"new hampshire":            "NH",
	"new jersey":               "NJ",
	"new mexico":               "NM",
	"new york":                 "NY",
	"north carolina":           "NC",
	"north dakota":             "ND",
	"ohio":                     "OH",
	"oklahoma":                 "OK",
	"oregon":                   "OR",
	"pennsylvania":             "PA",
	"rhode island":             "RI",
	"south carolina":           "SC",
	"south dakota":             "SD",
	"tennessee":                "TN",
	"texas":                    "TX",
	"utah":                     "UT",
	"vermont":                  "VT",
	"virginia":                 "VA",
	"washington":               "WA",
	"west virginia":            "WV",
	"wisconsin":                "WI",
	"wyoming":                  "WY",
	"american samoa":           "AS",
	"guam":                     "GU",
	"northern mariana islands": "MP",
	"puerto rico":              "PR",
	"virgin islands":           "VI",
}
