package model

import (
	"strconv"
	"strings"
)

var cuitWeights = []int64{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ParseCuit normalizes a CUIT/CUIL given with or without separators
// ("20-00000000-1") and validates its mod-11 check digit.
func ParseCuit(s string) (int64, error) {
	clean := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || r == ' ' {
			return -1
		}
		return r
	}, s)

	if len(clean) != 11 {
		return 0, &ValidationError{Message: "CUIT must have 11 digits, got " + strconv.Quote(s)}
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, &ValidationError{Message: "CUIT is not numeric: " + strconv.Quote(s)}
	}
	if !validCuit(clean) {
		return 0, &ValidationError{Message: "CUIT check digit mismatch: " + clean}
	}
	return n, nil
}

func validCuit(digits string) bool {
	var sum int64
	for i := 0; i < 10; i++ {
		sum += int64(digits[i]-'0') * cuitWeights[i]
	}
	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		// no CUIT carries a 10; AFIP reassigns the prefix instead
		return false
	}
	return check == int64(digits[10]-'0')
}
