package chart

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators, e.g. 3,292,679.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}
