package crimeviz

import (
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatThousands renders v with a comma between each group of three digits.
func FormatThousands(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return humanize.Commaf(v)
}

// FormatSI renders v with an SI prefix and at most six significant digits,
// trailing zeros removed.
func FormatSI(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	val, prefix := humanize.ComputeSI(v)
	digits := 6 - int(math.Floor(math.Log10(math.Abs(val)))) - 1
	if digits < 0 {
		digits = 0
	}
	return humanize.FtoaWithDigits(val, digits) + prefix
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(label string) string {
	return slugPattern.ReplaceAllString(strings.ToLower(label), "-")
}

// TitleCase upper cases the first letter of each word and lower cases the rest.
func TitleCase(str string) string {
	var (
		buf   strings.Builder
		start = true
	)
	for _, r := range strings.TrimSpace(str) {
		isLetter := ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r > 127
		switch {
		case isLetter && start:
			buf.WriteString(strings.ToUpper(string(r)))
			start = false
		case isLetter:
			buf.WriteString(strings.ToLower(string(r)))
		default:
			buf.WriteRune(r)
			start = true
		}
	}
	return buf.String()
}
