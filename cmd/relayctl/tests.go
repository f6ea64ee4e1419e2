package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/sportfengur-relay/internal/app"
	"github.com/riskibarqy/sportfengur-relay/internal/domain/competition"
)

func testsCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "tests [eventId]",
		Short: "List the class/competition pairs the relay uses to resolve competitionId",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := competition.ParseID(args[0])
			if err != nil {
				return err
			}

			vendor := app.NewVendorClient(env.cfg, env.logger, nil)
			tests, err := vendor.FetchEventTests(cmd.Context(), eventID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CLASS\tCOMPETITION\tSLUG\tCLASS NAME\tTEST")
			for _, t := range tests {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					t.ClassID,
					strconv.FormatInt(int64(t.CompetitionID), 10),
					t.CompetitionID.Slug(),
					t.ClassName,
					t.TestName,
				)
			}
			return w.Flush()
		},
	}
}
