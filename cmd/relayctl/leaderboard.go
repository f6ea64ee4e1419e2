package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/riskibarqy/sportfengur-relay/internal/app"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/leaderboard"
	"github.com/riskibarqy/sportfengur-relay/internal/infrastructure/repository/cache"
	basecache "github.com/riskibarqy/sportfengur-relay/internal/platform/cache"
	"github.com/riskibarqy/sportfengur-relay/internal/usecase"
)

func leaderboardCmd(env *cliEnv) *cobra.Command {
	var (
		classID        int64
		competitionArg string
		format         string
		sorted         bool
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Fetch and normalize one class/competition straight from the vendor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := competition.ParseType(competitionArg)
			if err != nil {
				return err
			}
			if classID <= 0 {
				return fmt.Errorf("--class must be a positive id")
			}

			vendor := app.NewVendorClient(env.cfg, env.logger, nil)
			startingLists := cache.NewStartingListRepository(vendor, basecache.NewStore(0), env.logger, nil)
			fetcher := usecase.NewLeaderboardFetcher(startingLists, vendor)

			entries, err := fetcher.FetchLeaderboard(cmd.Context(), competition.Key{ClassID: classID, CompetitionID: t}, true)
			if err != nil {
				return err
			}
			rows := leaderboard.NormalizeLeaderboard(entries)
			if sorted {
				leaderboard.SortByRank(rows)
			} else {
				leaderboard.SortByTrackNumber(rows)
			}

			switch format {
			case "csv":
				out, err := leaderboard.EncodeCSV(rows)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			case "json":
				out, err := sonic.ConfigStd.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			default:
				return fmt.Errorf("unknown --format %q (json, csv)", format)
			}
		},
	}

	cmd.Flags().Int64VarP(&classID, "class", "c", 0, "Vendor class id (flokkar_numer)")
	cmd.Flags().StringVarP(&competitionArg, "competition", "t", "forkeppni", "Competition: forkeppni, a, b or a number")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or csv")
	cmd.Flags().BoolVar(&sorted, "sorted", false, "Order by rank instead of track number")
	_ = cmd.MarkFlagRequired("class")

	return cmd
}
