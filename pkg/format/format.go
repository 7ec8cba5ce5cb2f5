package format

import (
	"strconv"
	"strings"

	"github.com/leonid6372/paper-trading/pkg/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DigitSeparator   = ","
	DecimalSeparator = "."
)

// Money formats d as a dollar amount with two decimals and grouped thousands: $1,234.50.
func Money(d decimal.Decimal) string {
	s := PrettyNumber(d.StringFixed(2), DigitSeparator, DecimalSeparator)
	if strings.HasPrefix(s, "-") {
		return "-$" + strings.TrimPrefix(s, "-")
	}

	return "$" + s
}

// Quantity formats n with grouped thousands: 1,000.
func Quantity(n int64) string {
	return PrettyNumber(strconv.FormatInt(n, 10), DigitSeparator, DecimalSeparator)
}

// PrettyNumber groups the integer part of numStr, a plain decimal number using
// '.' as decimal point, by thousands.
func PrettyNumber(numStr, separator, decimalSeparator string) string {
	isNegative := false

	if separator == "" && decimalSeparator == "" {
		return numStr
	}

	if separator == decimalSeparator {
		log.Warn("PrettyNumber: separator and decimalSeparator are the same", zap.String("value", separator))
	}

	if strings.HasPrefix(numStr, "-") {
		isNegative = true
		numStr = strings.TrimPrefix(numStr, "-")
	}

	parts := strings.Split(numStr, ".")
	integerPart := parts[0]
	decimalPart := ""
	if len(parts) == 2 {
		decimalPart = decimalSeparator + parts[1]
	}

	length := len(integerPart)
	if length == 0 {
		return numStr
	}

	start := length % 3
	if start == 0 {
		start = 3
	}

	var intPart strings.Builder

	if isNegative {
		intPart.WriteString("-")
	}

	intPart.WriteString(integerPart[:start])

	for i := start; i < length; i += 3 {
		intPart.WriteString(separator)
		intPart.WriteString(integerPart[i : i+3])
	}

	return intPart.String() + decimalPart
}
