package extract

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// datePattern matches a four digit year and a one or two digit month in any
// script's decimal digits, full-width included
var datePattern = regexp.MustCompile(`(\p{Nd}{4})[./-](\p{Nd}{1,2})`)

// NormalizeDates rewrites year-month dates to 'YYYY.MM. The leading quote
// keeps spreadsheet programs from reinterpreting the cell as a number or
// date. The rewrite is blind to context and runs before labels are located.
func NormalizeDates(text string) string {
	return datePattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := datePattern.FindStringSubmatch(m)
		month := parts[2]
		if utf8.RuneCountInString(month) == 1 {
			month = "0" + month
		}
		return fmt.Sprintf("'%s.%s", parts[1], month)
	})
}
