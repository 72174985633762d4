package selector

import "regexp"

// CommercialMake is the manufacturer whose pure-letter model names are
// commercial truck lines; its passenger cars carry alphanumeric codes.
const CommercialMake = "VOLVO"

// denyKeywords are matched as substrings of the uppercased model name.
var denyKeywords = []string{
	"CHASSIS", "CAB", "COMMERCIAL", "MEDIUM DUTY", "HEAVY DUTY",
	"STRIPPED", "INCOMPLETE", "MOTORHOME", "RV", "BUS", "TRACTOR",
	"MOTORCYCLE", "SCOOTER", "ATV", "TRAILER", "VAN CAMPER", "MOTOR COACH",
}

// heavyTruckTokens are CommercialMake's heavy-truck model codes.
var heavyTruckTokens = []string{
	"FH", "FM", "FMX", "NH", "VHD", "VNL", "VNM", "VNR", "VNX", "VT",
}

// overrides whitelist exact uppercase names per uppercase make.
var overrides = map[string][]string{
	"MERCEDES-BENZ": {"SPRINTER"},
}

// allowPatterns are the alphanumeric trim shapes (Q50, QX60, M340i).
var allowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]\d{1,2}$`),
	regexp.MustCompile(`^[A-Z][A-Z]\d{1,2}$`),
	regexp.MustCompile(`^[A-Z]\d{3}[a-zA-Z]*$`),
}

var (
	lettersOnly     = regexp.MustCompile(`^[A-Z]+$`)
	longNumericCode = regexp.MustCompile(`^[A-Z]\d{4,}`)
)

// Rules is the fixed filtering configuration.
type Rules struct {
	DenyKeywords     []string
	HeavyTruckTokens []string
	Overrides        map[string][]string
	AllowPatterns    []*regexp.Regexp
	CommercialMake   string
}

// DefaultRules returns the built-in configuration.
func DefaultRules() Rules {
	deny := make([]string, 0, len(denyKeywords)+len(heavyTruckTokens))
	deny = append(deny, denyKeywords...)
	deny = append(deny, heavyTruckTokens...)
	return Rules{
		DenyKeywords:     deny,
		HeavyTruckTokens: heavyTruckTokens,
		Overrides:        overrides,
		AllowPatterns:    allowPatterns,
		CommercialMake:   CommercialMake,
	}
}
