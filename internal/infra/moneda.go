package infra

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var impresorARS = message.NewPrinter(language.MustParse("es-AR"))

// FormatearMonto renders an amount as Argentine pesos, e.g. "$ 1.234,50".
// Negative amounts are prefixed with "-".
func FormatearMonto(d decimal.Decimal) string {
	f, _ := d.Abs().Round(2).Float64()
	s := "$ " + impresorARS.Sprintf("%.2f", f)
	if d.Round(2).IsNegative() {
		return "-" + s
	}
	return s
}
