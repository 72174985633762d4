package domain

import (
	"strings"
	"time"
)

// allowedMakes is the consumer-brand universe, uppercase.
var allowedMakes = map[string]struct{}{
	"ACURA": {}, "ALFA ROMEO": {}, "ASTON MARTIN": {}, "AUDI": {}, "BENTLEY": {}, "BMW": {},
	"BUICK": {}, "CADILLAC": {}, "CHEVROLET": {}, "CHRYSLER": {}, "DODGE": {}, "FERRARI": {}, "FIAT": {},
	"FORD": {}, "GENESIS": {}, "GMC": {}, "HONDA": {}, "HYUNDAI": {}, "INFINITI": {}, "JAGUAR": {}, "JEEP": {},
	"KIA": {}, "LAMBORGHINI": {}, "LAND ROVER": {}, "LEXUS": {}, "LINCOLN": {}, "LOTUS": {}, "MASERATI": {},
	"MAZDA": {}, "MERCEDES-BENZ": {}, "MINI": {}, "MITSUBISHI": {}, "NISSAN": {},
	"PORSCHE": {}, "RAM": {}, "ROLLS-ROYCE": {}, "SUBARU": {}, "TESLA": {}, "TOYOTA": {}, "VOLKSWAGEN": {}, "VOLVO": {},
}

// IsAllowedMake reports whether name, compared case-insensitively, is a consumer brand.
func IsAllowedMake(name string) bool {
	_, ok := allowedMakes[strings.ToUpper(name)]
	return ok
}

// AllowedMakes returns the allow-list. The returned map is a copy.
func AllowedMakes() map[string]struct{} {
	out := make(map[string]struct{}, len(allowedMakes))
	for k := range allowedMakes {
		out[k] = struct{}{}
	}
	return out
}

// MinModelYear is the earliest year offered for selection.
const MinModelYear = 1995

// ModelYears returns every selectable year, newest first.
func ModelYears(now time.Time) []int {
	current := now.Year()
	if current < MinModelYear {
		return nil
	}
	years := make([]int, 0, current-MinModelYear+1)
	for y := current; y >= MinModelYear; y-- {
		years = append(years, y)
	}
	return years
}
