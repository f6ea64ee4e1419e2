package leaderboard

import (
	"encoding/csv"
	"sort"

	"github.com/valyala/bytebufferpool"
)

// gaitPriority fixes the column order of the common gaits; others follow alphabetically.
var gaitPriority = []string{
	"tolt_frjals_hradi",
	"haegt_tolt",
	"tolt_med_slakan_taum",
	"brokk",
	"skeid",
	"flugskeid",
	"stokk",
}

var baseColumns = []string{
	"Nr", "Saeti", "Holl", "Hond", "Knapi", "LiturRas", "FelagKnapa", "Hestur",
	"Litur", "Aldur", "FelagEiganda", "Lid", "NafnBIG",
	"E1", "E2", "E3", "E4", "E5", "E6",
	"adalE1", "adalE2", "adalE3", "adalE4", "adalE5", "adalE6",
}

// GaitKeys returns the gait keys present in rows in export order.
func GaitKeys(rows []Contestant) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for _, g := range row.Gaits {
			seen[g.Key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for _, key := range gaitPriority {
		if _, ok := seen[key]; ok {
			keys = append(keys, key)
			delete(seen, key)
		}
	}
	rest := make([]string, 0, len(seen))
	for key := range seen {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// EncodeCSV renders rows with the fixed columns followed by <gait>E1..E6 columns.
func EncodeCSV(rows []Contestant) ([]byte, error) {
	gaitKeys := GaitKeys(rows)

	header := make([]string, 0, len(baseColumns)+len(gaitKeys)*6)
	header = append(header, baseColumns...)
	for _, key := range gaitKeys {
		header = append(header, key+"E1", key+"E2", key+"E3", key+"E4", key+"E5", key+"E6")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	record := make([]string, 0, len(header))
	for _, row := range rows {
		record = record[:0]
		record = append(record,
			row.Nr, row.Saeti, row.Holl, row.Hond, row.Knapi, row.LiturRas, row.FelagKnapa,
			row.Hestur, row.Litur, row.Aldur, row.FelagEiganda, row.Lid, row.NafnBIG,
			row.E1, row.E2, row.E3, row.E4, row.E5, row.E6,
			row.Adal.E1, row.Adal.E2, row.Adal.E3, row.Adal.E4, row.Adal.E5, row.Adal.E6,
		)
		for _, key := range gaitKeys {
			g, _ := row.Gait(key)
			record = append(record, g.E1, g.E2, g.E3, g.E4, g.E5, g.E6)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// GaitResultRow is one contestant's line in a per-gait result table.
type GaitResultRow struct {
	Name string `json:"nafn"`
	Rank string `json:"saeti"`
	Scores
}

// GaitTable lists every contestant scored on one gait.
type GaitTable struct {
	Key   string          `json:"gangtegundKey"`
	Title string          `json:"title"`
	Rows  []GaitResultRow `json:"einkunnir"`
}

// GroupByGait builds per-gait result tables in export order. Row order follows rows.
func GroupByGait(rows []Contestant) []GaitTable {
	keys := GaitKeys(rows)
	tables := make([]GaitTable, 0, len(keys))
	for _, key := range keys {
		table := GaitTable{Key: key, Rows: make([]GaitResultRow, 0, len(rows))}
		for _, row := range rows {
			g, ok := row.Gait(key)
			if !ok {
				continue
			}
			if table.Title == "" {
				table.Title = g.Title
			}
			table.Rows = append(table.Rows, GaitResultRow{Name: row.Knapi, Rank: row.Saeti, Scores: g.Scores})
		}
		tables = append(tables, table)
	}
	return tables
}
