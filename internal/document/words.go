package document

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/divan/num2words"

	"contractflow/internal/contract"
)

// AmountInWords spells an amount for the fee clause: "Five Thousand US Dollars",
// "Twelve US Dollars and 50 Cents".
func AmountInWords(a contract.Amount) string {
	words := titleCase(num2words.Convert(int(a.Dollars())))
	out := words + " US Dollars"
	if cents := a.Cents() % 100; cents != 0 {
		out += fmt.Sprintf(" and %02d Cents", cents)
	}
	return out
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(f)
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}
