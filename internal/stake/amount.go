package stake

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decimals is the number of fractional digits in a coin amount.
const Decimals = 9

// FormatAmount renders base units as a decimal coin string ("0.200000000").
func FormatAmount(units uint64) string {
	return fmt.Sprintf("%d.%0*d", units/Coin, Decimals, units%Coin)
}

// ParseAmount converts a decimal coin string ("0.5", "12") to base units.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	wholeStr, fracStr, hasFrac := strings.Cut(s, ".")
	if wholeStr == "" && fracStr == "" {
		return 0, fmt.Errorf("amount %q has no digits", s)
	}
	if wholeStr == "" {
		wholeStr = "0"
	}
	whole, err := strconv.ParseUint(wholeStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if hasFrac {
		if len(fracStr) > Decimals {
			return 0, fmt.Errorf("too many decimal places (max %d)", Decimals)
		}
		fracStr += strings.Repeat("0", Decimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	if whole > (math.MaxUint64-frac)/Coin {
		return 0, fmt.Errorf("amount too large")
	}
	return whole*Coin + frac, nil
}
