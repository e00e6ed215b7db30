package http

import (
	"sort"
	"strings"
)

// StyleEntry es un extracto del Manual of Style que el backend de prueba puede citar.
type StyleEntry struct {
	Title    string
	Content  string
	Keywords []string
}

// DefaultStyleCorpus contiene un puñado de secciones del Manual of Style.
var DefaultStyleCorpus = []StyleEntry{
	{
		Title:    "MOS:DATEFORMAT",
		Content:  "Dates may be written as 2 September 2001 or September 2, 2001. Use one format consistently within an article; do not use ordinal suffixes such as 2nd.",
		Keywords: []string{"date", "dates", "month", "year", "day", "format"},
	},
	{
		Title:    "MOS:CAPS",
		Content:  "Wikipedia avoids unnecessary capitalization. Section headings and article titles use sentence case: only the first word and proper names are capitalized.",
		Keywords: []string{"capital", "capitalization", "capitalisation", "caps", "title", "titles", "heading", "headings", "case"},
	},
	{
		Title:    "MOS:QUOTEMARKS",
		Content:  "Use straight double quotation marks for quotations and single marks for quotations within quotations. Place punctuation inside only if it is part of the quoted material.",
		Keywords: []string{"quote", "quotes", "quotation", "quotations", "marks", "punctuation"},
	},
	{
		Title:    "MOS:NUMERAL",
		Content:  "Integers from zero to nine are spelled out in words; larger numbers are generally written as numerals. Use a comma or gap to group digits in numbers of five or more digits.",
		Keywords: []string{"number", "numbers", "numeral", "numerals", "digits", "spell"},
	},
	{
		Title:    "MOS:SERIAL",
		Content:  "Editors may use or omit the serial (Oxford) comma, but each article should be internally consistent.",
		Keywords: []string{"comma", "oxford", "serial", "list", "lists"},
	},
	{
		Title:    "MOS:DASH",
		Content:  "Hyphens join compound words, en dashes express ranges and relations, and em dashes set off parenthetical phrases. Do not use a hyphen for a range.",
		Keywords: []string{"dash", "dashes", "hyphen", "hyphens", "range", "ranges"},
	},
	{
		Title:    "MOS:UNITS",
		Content:  "Use a non-breaking space between a number and its unit symbol, and provide conversions where readers may be unfamiliar with the unit system.",
		Keywords: []string{"unit", "units", "measure", "measurement", "metric", "conversion"},
	},
}

const maxSources = 3

// search devuelve hasta maxSources entradas ordenadas por coincidencias de palabras clave.
func search(corpus []StyleEntry, query string) []StyleEntry {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	type scored struct {
		entry StyleEntry
		score int
	}
	var hits []scored
	for _, entry := range corpus {
		score := 0
		for _, w := range words {
			for _, k := range entry.Keywords {
				if w == k {
					score++
				}
			}
		}
		if score > 0 {
			hits = append(hits, scored{entry: entry, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxSources {
		hits = hits[:maxSources]
	}
	out := make([]StyleEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.entry)
	}
	return out
}
