package asc

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Absent is the token the exporter writes for a missing value.
const Absent = "."

var errNotFixedPoint = errors.New("not in fixed-point notation")

// ParseDecimal decodes a fixed-point token such as "512.3", falling back to
// scientific notation ("1.5e2") when the plain form does not parse.
func ParseDecimal(tok string) (decimal.Decimal, error) {
	if d, err := parseFixed(tok); err == nil {
		return d, nil
	}
	d, err := parseScientific(tok)
	if err != nil {
		return decimal.Decimal{}, &NumericParseError{Token: tok, Kind: "decimal", Err: err}
	}
	return d, nil
}

// ParseOptionalDecimal returns nil for the absent marker and otherwise
// behaves like ParseDecimal.
func ParseOptionalDecimal(tok string) (*decimal.Decimal, error) {
	if tok == Absent {
		return nil, nil
	}
	d, err := ParseDecimal(tok)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseFixed(tok string) (decimal.Decimal, error) {
	body := strings.TrimLeft(tok, "+-")
	if len(tok)-len(body) > 1 || body == "" {
		return decimal.Decimal{}, errNotFixedPoint
	}
	digits := 0
	dot := false
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return decimal.Decimal{}, errNotFixedPoint
		}
	}
	if digits == 0 {
		return decimal.Decimal{}, errNotFixedPoint
	}
	return decimal.NewFromString(tok)
}

func parseScientific(tok string) (decimal.Decimal, error) {
	i := strings.IndexAny(tok, "eE")
	if i < 0 {
		return decimal.Decimal{}, errNotFixedPoint
	}
	if _, err := parseFixed(tok[:i]); err != nil {
		return decimal.Decimal{}, err
	}
	if _, err := strconv.ParseInt(tok[i+1:], 10, 32); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(tok)
}

// ParseUint32 decodes a base-10 unsigned integer token.
func ParseUint32(tok string) (uint32, error) {
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, &NumericParseError{Token: tok, Kind: "integer", Err: err}
	}
	return uint32(v), nil
}

// ParseUint64 decodes a base-10 unsigned integer token.
func ParseUint64(tok string) (uint64, error) {
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, &NumericParseError{Token: tok, Kind: "integer", Err: err}
	}
	return v, nil
}

// ParseInt32 decodes a base-10 signed integer token.
func ParseInt32(tok string) (int32, error) {
	v, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, &NumericParseError{Token: tok, Kind: "integer", Err: err}
	}
	return int32(v), nil
}

func parseTimestamp(tok string) (decimal.Decimal, error) {
	d, err := ParseDecimal(tok)
	if err != nil {
		var ne *NumericParseError
		if errors.As(err, &ne) {
			ne.Kind = "timestamp"
		}
		return decimal.Decimal{}, err
	}
	return d, nil
}
