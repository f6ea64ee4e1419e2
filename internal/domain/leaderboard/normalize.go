package leaderboard

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// unrankedSortValue places contestants without a numeric rank after everyone else.
const unrankedSortValue = 999

var birthYearPattern = regexp.MustCompile(`\d{4}`)

// NormalizeLeaderboard maps joined entries into contestant records sorted by rank.
func NormalizeLeaderboard(entries []Entry) []Contestant {
	return normalizeLeaderboardAt(entries, time.Now())
}

func normalizeLeaderboardAt(entries []Entry, now time.Time) []Contestant {
	out := make([]Contestant, 0, len(entries))
	for _, e := range entries {
		out = append(out, NormalizeEntry(e, now))
	}
	SortByRank(out)
	return out
}

// NormalizeEntry maps a single joined entry. now is used for the age column.
func NormalizeEntry(e Entry, now time.Time) Contestant {
	rider := firstNonEmpty(e.RiderFullName, e.RiderFullNameAlt, e.RiderName)
	main, gaits := scoreGroups(e.Judges)

	return Contestant{
		Nr:           strings.TrimSpace(e.TrackNumber),
		Saeti:        firstNonEmpty(e.ResultRank, e.FormattedRank),
		Holl:         strings.TrimSpace(e.Group),
		Hond:         strings.TrimSpace(e.Hand),
		Knapi:        rider,
		LiturRas:     colorCode(e.ColorNumber, e.Color),
		FelagKnapa:   strings.TrimSpace(e.RiderClub),
		Hestur:       firstNonEmpty(e.HorseFullName, e.HorseFullNameAlt, e.HorseName),
		Litur:        strings.TrimSpace(e.HorseColor),
		Aldur:        Age(e.BirthID, now),
		FelagEiganda: strings.TrimSpace(e.OwnerClub),
		Lid:          strings.TrimSpace(e.Team),
		NafnBIG:      strings.ToUpper(rider),
		Scores:       main,
		Medaleinkunn: RoundScore(e.Average),
		Adal:         main,
		Gaits:        gaits,
	}
}

func scoreGroups(judges []JudgeMark) (Scores, []GaitScores) {
	type gaitMarks struct {
		title string
		marks [MaxJudges]string
	}

	var main [MaxJudges]string
	byKey := make(map[string]*gaitMarks)
	order := make([]string, 0, 8)

	for i, judge := range judges {
		if i >= MaxJudges {
			break
		}
		main[i] = RoundScore(judge.Score)

		for _, g := range judge.Gaits {
			title := strings.TrimSpace(g.Gait)
			key := GaitKey(title)
			if key == "" {
				continue
			}
			acc, ok := byKey[key]
			if !ok {
				acc = &gaitMarks{title: title}
				byKey[key] = acc
				order = append(order, key)
			}
			acc.marks[i] = RoundScore(g.Score)
		}
	}

	gaits := make([]GaitScores, 0, len(order))
	for _, key := range order {
		acc := byKey[key]
		scores := newScores(acc.marks)
		if scores.E6 == "" {
			continue
		}
		gaits = append(gaits, GaitScores{Key: key, Title: acc.title, Scores: scores})
	}

	return newScores(main), gaits
}

func newScores(marks [MaxJudges]string) Scores {
	return Scores{
		E1: marks[0],
		E2: marks[1],
		E3: marks[2],
		E4: marks[3],
		E5: marks[4],
		E6: Average(marks[:]),
	}
}

// Age derives an age from the first four-digit year in a birth identifier
// such as "IS2015187654". Years outside 1900..now yield "".
func Age(birthID string, now time.Time) string {
	match := birthYearPattern.FindString(birthID)
	if match == "" {
		return ""
	}
	year, err := strconv.Atoi(match)
	if err != nil || year < 1900 || year > now.Year() {
		return ""
	}
	return strconv.Itoa(now.Year() - year)
}

func colorCode(number, color string) string {
	number = strings.TrimSpace(number)
	color = strings.TrimSpace(color)
	switch {
	case number != "" && color != "":
		return number + " - " + color
	case color != "":
		return color
	default:
		return number
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// SortByRank orders contestants by numeric Saeti; unranked rows keep their relative order at the end.
func SortByRank(rows []Contestant) {
	sort.SliceStable(rows, func(i, j int) bool {
		return sortValue(rows[i].Saeti) < sortValue(rows[j].Saeti)
	})
}

// SortByTrackNumber orders contestants by numeric Nr.
func SortByTrackNumber(rows []Contestant) {
	sort.SliceStable(rows, func(i, j int) bool {
		return sortValue(rows[i].Nr) < sortValue(rows[j].Nr)
	})
}

func sortValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v == 0 || v != v {
		return unrankedSortValue
	}
	return v
}
