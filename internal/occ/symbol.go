// Package occ parses and formats OCC-style option symbols:
// {root}{YYMMDD}{C|P}{strike*1000 padded to 8 digits}, e.g. NVDA240322C00950000.
package occ

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/straddle/internal/core"
)

// Symbol is a decoded OCC option symbol.
type Symbol struct {
	Root   string
	Expiry time.Time
	Type   core.OptionType
	Strike float64
}

// suffixLen is the fixed-width tail: 6 expiry digits, 1 type char, 8 strike digits.
const suffixLen = 6 + 1 + 8

// Parse decodes an OCC symbol. The root is variable length, so the fixed
// fields are read from the end of the string.
func Parse(s string) (Symbol, error) {
	if len(s) <= suffixLen {
		return Symbol{}, fmt.Errorf("symbol too short: %q", s)
	}

	root := s[:len(s)-suffixLen]
	tail := s[len(s)-suffixLen:]

	expiry, err := time.Parse("060102", tail[:6])
	if err != nil {
		return Symbol{}, fmt.Errorf("invalid expiry in %q: %w", s, err)
	}

	var typ core.OptionType
	switch tail[6] {
	case 'C':
		typ = core.OptionCall
	case 'P':
		typ = core.OptionPut
	default:
		return Symbol{}, fmt.Errorf("invalid option type %q in %q", tail[6], s)
	}

	strikeDigits, err := strconv.Atoi(tail[7:])
	if err != nil {
		return Symbol{}, fmt.Errorf("invalid strike in %q: %w", s, err)
	}

	return Symbol{
		Root:   root,
		Expiry: expiry,
		Type:   typ,
		Strike: float64(strikeDigits) / 1000,
	}, nil
}

// Format encodes a Symbol back into its OCC string form.
func Format(sym Symbol) string {
	return fmt.Sprintf("%s%s%s%08d",
		strings.ToUpper(sym.Root),
		sym.Expiry.Format("060102"),
		sym.Type,
		int(math.Round(sym.Strike*1000)),
	)
}

// StrikeOf is a convenience for extracting just the strike from a symbol.
func StrikeOf(s string) (float64, error) {
	sym, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return sym.Strike, nil
}
