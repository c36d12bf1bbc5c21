package metadata

import (
	"strings"
	"unicode"
)

// qualifierRank orders the well-known qualifiers. The release (empty)
// qualifier sits between snapshot and sp; unknown qualifiers sort after all
// of them, lexically among themselves.
var qualifierRank = map[string]int{
	"alpha":     0,
	"beta":      1,
	"milestone": 2,
	"rc":        3,
	"snapshot":  4,
	"":          5,
	"sp":        6,
}

var qualifierAliases = map[string]string{
	"a":       "alpha",
	"b":       "beta",
	"m":       "milestone",
	"cr":      "rc",
	"ga":      "",
	"final":   "",
	"release": "",
}

const unknownRank = 7

type item struct {
	numeric bool
	digits  string // numeric: decimal digits without leading zeros
	text    string // qualifier after alias normalisation
}

// Compare orders two versions the way Maven does: numeric parts compare as
// numbers, qualifiers follow alpha < beta < milestone < rc < snapshot <
// release < sp, and missing trailing parts count as zero or release.
// It returns -1, 0 or 1.
func Compare(a, b string) int {
	x, y := tokenize(a), tokenize(b)
	for i := 0; i < len(x) || i < len(y); i++ {
		var c int
		switch {
		case i >= len(x):
			c = -compareToNull(y[i])
		case i >= len(y):
			c = compareToNull(x[i])
		default:
			c = compareItems(x[i], y[i])
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func tokenize(v string) []item {
	v = strings.ToLower(strings.TrimSpace(v))
	var items []item
	var cur strings.Builder
	curDigit := false

	flush := func(followedByDigit bool) {
		if cur.Len() == 0 {
			return
		}
		s := cur.String()
		cur.Reset()
		if curDigit {
			d := strings.TrimLeft(s, "0")
			items = append(items, item{numeric: true, digits: d})
			return
		}
		// Single-letter aliases only apply directly before a number, as in 1.0-b2.
		if alias, ok := qualifierAliases[s]; ok && (len(s) > 1 || followedByDigit) {
			s = alias
		}
		items = append(items, item{text: s})
	}

	for _, r := range v {
		switch {
		case r == '.' || r == '-' || r == '_':
			flush(false)
		case unicode.IsDigit(r):
			if !curDigit {
				flush(true)
			}
			curDigit = true
			cur.WriteRune(r)
		default:
			if curDigit {
				flush(false)
			}
			curDigit = false
			cur.WriteRune(r)
		}
	}
	flush(false)

	// Trailing zeros and release qualifiers do not change the version:
	// 1.0 == 1 == 1.0.0 == 1-ga.
	for len(items) > 0 && isNull(items[len(items)-1]) {
		items = items[:len(items)-1]
	}
	return items
}

func isNull(it item) bool {
	if it.numeric {
		return it.digits == ""
	}
	return it.text == ""
}

func compareItems(a, b item) int {
	switch {
	case a.numeric && b.numeric:
		return compareDigits(a.digits, b.digits)
	case a.numeric:
		return 1
	case b.numeric:
		return -1
	default:
		return compareQualifiers(a.text, b.text)
	}
}

// compareToNull compares an item against a missing one.
func compareToNull(it item) int {
	if it.numeric {
		return compareDigits(it.digits, "")
	}
	return compareQualifiers(it.text, "")
}

func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func compareQualifiers(a, b string) int {
	ra, ka := rank(a)
	rb, kb := rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if !ka && !kb {
		return strings.Compare(a, b)
	}
	return 0
}

func rank(q string) (int, bool) {
	if r, ok := qualifierRank[q]; ok {
		return r, true
	}
	return unknownRank, false
}
