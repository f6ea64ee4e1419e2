package leaderboard

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RoundScore parses a vendor mark (comma or dot decimal) and rounds it half
// away from zero to two decimals. Unparseable input yields "".
func RoundScore(raw string) string {
	v, ok := parseScore(raw)
	if !ok {
		return ""
	}
	return formatScore(roundHalfUp(v))
}

// Average returns the rounded mean of the present marks, or "" when none are present.
func Average(marks []string) string {
	var (
		sum   float64
		count int
	)
	for _, m := range marks {
		v, ok := parseScore(m)
		if !ok {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return ""
	}
	return formatScore(roundHalfUp(sum / float64(count)))
}

func parseScore(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func roundHalfUp(v float64) float64 {
	// nudge away from zero so binary representations like 8.645 -> 8.6449999 still round up
	r := math.Round(v*100+math.Copysign(1e-9, v)) / 100
	if r == 0 {
		return 0
	}
	return r
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var gaitLetters = strings.NewReplacer("ð", "d", "þ", "th", "æ", "ae", "ø", "o", "ß", "ss")

// GaitKey turns a gait display name into an ASCII key:
// "Tölt frjáls hraði" becomes "tolt_frjals_hradi".
func GaitKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = gaitLetters.Replace(s)

	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), "_")
}
