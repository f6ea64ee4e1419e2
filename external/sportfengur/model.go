package sportfengur

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

// flexString accepts a JSON string, number or bool and keeps its text.
// Anything else decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		*f = ""
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := sonic.Unmarshal(raw, &s); err != nil {
			*f = ""
			return nil
		}
		*f = flexString(strings.TrimSpace(s))
	case '{', '[', 'n':
		*f = ""
	default:
		*f = flexString(raw)
	}
	return nil
}

func (f flexString) String() string {
	return string(f)
}

func (f flexString) Int64() int64 {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

type startingListEnvelope struct {
	Items []startingListItem `json:"raslisti"`
}

type startingListItem struct {
	ContestantNumber flexString `json:"keppandi_numer"`
	TrackNumber      flexString `json:"vallarnumer"`
	FormattedRank    flexString `json:"fmt_saeti"`
	Group            flexString `json:"holl"`
	Hand             flexString `json:"hond"`
	RiderFullName    flexString `json:"knapi_fullt_nafn"`
	RiderFullNameAlt flexString `json:"knapi_fulltnafn"`
	RiderName        flexString `json:"knapi_nafn"`
	HorseFullName    flexString `json:"hross_fullt_nafn"`
	HorseFullNameAlt flexString `json:"hross_fulltnafn"`
	HorseName        flexString `json:"hross_nafn"`
	ColorNumber      flexString `json:"rodun_litur_numer"`
	Color            flexString `json:"rodun_litur"`
	RiderClub        flexString `json:"adildarfelag_knapa"`
	HorseColor       flexString `json:"hross_litur"`
	BirthID          flexString `json:"faedingarnumer"`
	OwnerClub        flexString `json:"adildarfelag_eiganda"`
	Team             flexString `json:"lid"`
}

type resultsEnvelope struct {
	Items []resultItem `json:"einkunnir"`
}

type resultItem struct {
	ContestantNumber flexString  `json:"keppandi_numer"`
	Judges           []judgeItem `json:"einkunnir_domara"`
	Average          flexString  `json:"keppandi_medaleinkunn"`
	Rank             flexString  `json:"saeti"`
}

type judgeItem struct {
	Score     flexString `json:"domari_adaleinkunn"`
	Breakdown []gaitItem `json:"sundurlidun_einkunna"`
}

type gaitItem struct {
	Gait  flexString `json:"gangtegund"`
	Score flexString `json:"einkunn"`
}

type eventTestsEnvelope struct {
	Items []eventTestItem `json:"res"`
}

type eventTestItem struct {
	ClassID       flexString `json:"flokkar_numer"`
	CompetitionID flexString `json:"keppni_numer"`
	ClassName     flexString `json:"flokkur"`
	TestName      flexString `json:"keppnisgrein"`
}

func mapStartingList(items []startingListItem) []leaderboard.StartingEntry {
	out := make([]leaderboard.StartingEntry, 0, len(items))
	for _, item := range items {
		out = append(out, leaderboard.StartingEntry{
			ContestantNumber: item.ContestantNumber.String(),
			TrackNumber:      item.TrackNumber.String(),
			FormattedRank:    item.FormattedRank.String(),
			Group:            item.Group.String(),
			Hand:             item.Hand.String(),
			RiderFullName:    item.RiderFullName.String(),
			RiderFullNameAlt: item.RiderFullNameAlt.String(),
			RiderName:        item.RiderName.String(),
			HorseFullName:    item.HorseFullName.String(),
			HorseFullNameAlt: item.HorseFullNameAlt.String(),
			HorseName:        item.HorseName.String(),
			ColorNumber:      item.ColorNumber.String(),
			Color:            item.Color.String(),
			RiderClub:        item.RiderClub.String(),
			HorseColor:       item.HorseColor.String(),
			BirthID:          item.BirthID.String(),
			OwnerClub:        item.OwnerClub.String(),
			Team:             item.Team.String(),
		})
	}
	return out
}

func mapResults(items []resultItem) []leaderboard.Result {
	out := make([]leaderboard.Result, 0, len(items))
	for _, item := range items {
		judges := make([]leaderboard.JudgeMark, 0, len(item.Judges))
		for _, judge := range item.Judges {
			gaits := make([]leaderboard.GaitMark, 0, len(judge.Breakdown))
			for _, g := range judge.Breakdown {
				gaits = append(gaits, leaderboard.GaitMark{Gait: g.Gait.String(), Score: g.Score.String()})
			}
			judges = append(judges, leaderboard.JudgeMark{Score: judge.Score.String(), Gaits: gaits})
		}
		out = append(out, leaderboard.Result{
			ContestantNumber: item.ContestantNumber.String(),
			Judges:           judges,
			Average:          item.Average.String(),
			Rank:             item.Rank.String(),
		})
	}
	return out
}

func mapEventTests(items []eventTestItem) []usecase.EventTest {
	out := make([]usecase.EventTest, 0, len(items))
	for _, item := range items {
		classID := item.ClassID.Int64()
		competitionID := item.CompetitionID.Int64()
		if classID <= 0 {
			continue
		}
		out = append(out, usecase.EventTest{
			ClassID:       classID,
			CompetitionID: competition.Type(competitionID),
			ClassName:     item.ClassName.String(),
			TestName:      item.TestName.String(),
		})
	}
	return out
}
