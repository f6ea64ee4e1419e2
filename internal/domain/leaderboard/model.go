package leaderboard

import (
	"github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
)

// MaxJudges is the number of judge columns (E1..E5) carried per score group.
const MaxJudges = 5

// StartingEntry is one row of a vendor starting list. Values are kept as the
// display strings the vendor sent; missing values are empty.
type StartingEntry struct {
	ContestantNumber string
	TrackNumber      string
	FormattedRank    string
	Group            string
	Hand             string
	RiderFullName    string
	RiderFullNameAlt string
	RiderName        string
	HorseFullName    string
	HorseFullNameAlt string
	HorseName        string
	ColorNumber      string
	Color            string
	RiderClub        string
	HorseColor       string
	BirthID          string
	OwnerClub        string
	Team             string
}

// JudgeMark is one judge's overall mark plus the per-gait breakdown.
type JudgeMark struct {
	Score string
	Gaits []GaitMark
}

type GaitMark struct {
	Gait  string
	Score string
}

// Result is the scoring state of one contestant.
type Result struct {
	ContestantNumber string
	Judges           []JudgeMark
	Average          string
	Rank             string
}

// Entry is a starting-list row joined with its result, before normalization.
type Entry struct {
	StartingEntry
	Judges     []JudgeMark
	Average    string
	ResultRank string
}

// Scores is one E1..E6 group. E6 is the mean of the present E1..E5 values.
type Scores struct {
	E1 string `json:"E1"`
	E2 string `json:"E2"`
	E3 string `json:"E3"`
	E4 string `json:"E4"`
	E5 string `json:"E5"`
	E6 string `json:"E6"`
}

// GaitScores is the score group for a single gait.
type GaitScores struct {
	Key   string `json:"-"`
	Title string `json:"_title"`
	Scores
}

// Contestant is the stable output record consumed by the graphics tool.
type Contestant struct {
	Nr           string `json:"Nr"`
	Saeti        string `json:"Saeti"`
	Holl         string `json:"Holl"`
	Hond         string `json:"Hond"`
	Knapi        string `json:"Knapi"`
	LiturRas     string `json:"LiturRas"`
	FelagKnapa   string `json:"FelagKnapa"`
	Hestur       string `json:"Hestur"`
	Litur        string `json:"Litur"`
	Aldur        string `json:"Aldur"`
	FelagEiganda string `json:"FelagEiganda"`
	Lid          string `json:"Lid"`
	NafnBIG      string `json:"NafnBIG"`
	Scores
	// Medaleinkunn is the vendor-reported average, rounded. It can differ from E6
	// when the vendor applies its own judging rules.
	Medaleinkunn string       `json:"Medaleinkunn"`
	Adal         Scores       `json:"adal"`
	Gaits        []GaitScores `json:"-"`
}

// Gait returns the score group for key.
func (c Contestant) Gait(key string) (GaitScores, bool) {
	for _, g := range c.Gaits {
		if g.Key == key {
			return g, true
		}
	}
	return GaitScores{}, false
}

var reservedKeys = map[string]struct{}{
	"Nr": {}, "Saeti": {}, "Holl": {}, "Hond": {}, "Knapi": {}, "LiturRas": {},
	"FelagKnapa": {}, "Hestur": {}, "Litur": {}, "Aldur": {}, "FelagEiganda": {},
	"Lid": {}, "NafnBIG": {}, "E1": {}, "E2": {}, "E3": {}, "E4": {}, "E5": {},
	"E6": {}, "Medaleinkunn": {}, "adal": {},
}

// MarshalJSON flattens the gait groups into top-level keys after the fixed fields.
func (c Contestant) MarshalJSON() ([]byte, error) {
	type plain Contestant
	base, err := sonic.Marshal(plain(c))
	if err != nil || len(c.Gaits) == 0 {
		return base, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.Write(base[:len(base)-1])
	for _, g := range c.Gaits {
		if _, taken := reservedKeys[g.Key]; taken || g.Key == "" {
			continue
		}
		key, err := sonic.Marshal(g.Key)
		if err != nil {
			return nil, err
		}
		value, err := sonic.Marshal(g)
		if err != nil {
			return nil, err
		}
		_ = buf.WriteByte(',')
		_, _ = buf.Write(key)
		_ = buf.WriteByte(':')
		_, _ = buf.Write(value)
	}
	_ = buf.WriteByte('}')

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}
