package routes

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Trailing administrative suffixes dropped from terminal names, compared
// after Turkish uppercasing and with a trailing dot removed.
var adminSuffixes = map[string]struct{}{
	"MAH":       {},
	"MAHALLESİ": {},
	"CAD":       {},
	"CADDESİ":   {},
	"SOK":       {},
	"SOKAK":     {},
	"SOKAĞI":    {},
}

// DirectionLabel turns a terminal stop name into the banner shown on trains:
// Turkish-uppercased, trailing administrative suffixes removed, "YÖNÜ"
// appended. "Kadıköy Mah." becomes "KADIKÖY YÖNÜ".
func DirectionLabel(terminal string) string {
	// cases.Caser is stateful, so build one per call.
	upper := cases.Upper(language.Turkish).String(strings.TrimSpace(terminal))
	fields := strings.Fields(upper)
	if len(fields) == 0 {
		return ""
	}
	for len(fields) > 1 {
		last := strings.TrimSuffix(fields[len(fields)-1], ".")
		if _, ok := adminSuffixes[last]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ") + " YÖNÜ"
}
