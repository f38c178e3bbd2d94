package dataset

import (
	"bytes"
	"strings"
)

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the delimiter for delimited text. A .tsv name wins;
// otherwise the candidate occurring most often outside quotes on the header
// line is chosen, defaulting to comma.
func sniffDelimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range candidateDelimiters {
			if r == d {
				counts[d]++
			}
		}
	}
	best, bestN := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best
}
