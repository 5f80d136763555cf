package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tombola/internal/models"
	"tombola/internal/notify"
	"tombola/internal/services"
	"tombola/internal/store"

	"github.com/goccy/go-json"
	"github.com/google/logger"
	"github.com/spf13/cobra"
)

func (a *app) drawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draw <players file> [lottery file]",
		Short: "Complete the lottery, keeping existing assignments",
		Long: "Complete the lottery, keeping existing assignments.\n\n" +
			"The lottery file defaults to " + store.LotteryFile + " next to the players file.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			playersFile := args[0]
			lotteryFile := filepath.Join(filepath.Dir(playersFile), store.LotteryFile)
			if len(args) > 1 {
				lotteryFile = args[1]
			}

			records, err := store.ReadPlayers(playersFile)
			if err != nil {
				return err
			}
			roster, _, err := services.LoadRoster(records)
			if err != nil {
				return err
			}
			existing, err := store.ReadLottery(lotteryFile)
			if err != nil {
				return err
			}

			lottery, err := services.RetryDraw(roster, existing, a.cfg.Server.DrawAttempts, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range roster.Order {
				if target, ok := lottery[id]; ok {
					fmt.Fprintf(out, "%s → %s\n", roster.Players[id].DisplayName, roster.Players[target].DisplayName)
				}
			}

			if err := store.WriteLottery(lotteryFile, lottery); err != nil {
				return err
			}

			if len(lottery) == len(existing) {
				return nil
			}
			history, err := a.openHistory(cmd.Context())
			if err != nil || history == nil {
				return err
			}
			defer history.Close()
			game := filepath.Base(filepath.Dir(playersFile))
			run, err := history.RecordDraw(cmd.Context(), game, lottery)
			if err != nil {
				return err
			}
			logger.Infof("recorded draw %s for %s", run.ID, game)
			return nil
		},
	}
}

// loadGame reads the players and the lottery of a game directory.
func loadGame(dir string) (*models.Roster, models.Lottery, error) {
	records, err := store.ReadPlayers(filepath.Join(dir, store.PlayersFile))
	if err != nil {
		return nil, nil, err
	}
	roster, _, err := services.LoadRoster(records)
	if err != nil {
		return nil, nil, err
	}
	lottery, err := store.ReadLottery(filepath.Join(dir, store.LotteryFile))
	if err != nil {
		return nil, nil, err
	}
	return roster, lottery, nil
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <game directory>",
		Short: "Print the players with their targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, lottery, err := loadGame(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(services.Summarize(roster, lottery), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report notify.Report) {
	fmt.Fprintf(cmd.OutOrStdout(), "sent: %d, skipped: %d, failed: %d\n",
		len(report.Sent), len(report.Skipped), len(report.Failed))
	for _, name := range report.Failed {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", name)
	}
}

func (a *app) emailCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "email <game directory> <mail template> [patterns...]",
		Short: "Email every selected player their target",
		Long: "Email every selected player their target.\n\n" +
			"Patterns are globs on lower-cased display names, \"!\" negates.\n" +
			"Without --force, messages are only printed.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if force {
				if err := a.cfg.ValidateMail(); err != nil {
					return err
				}
			}

			roster, lottery, err := loadGame(args[0])
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			tpl, err := notify.CompileMailTemplate(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			match, err := notify.NewGlobMatcher(args[2:])
			if err != nil {
				return err
			}

			d := &notify.Dispatcher{Roster: roster, Lottery: lottery, Match: match}
			report, err := d.SendEmails(cmd.Context(), tpl, notify.NewMailer(a.cfg.Mail, force))
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "actually send the messages")
	return cmd
}

func (a *app) smsCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sms <game directory> <template> [patterns...]",
		Short: "Text every selected player their target",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if force {
				if err := a.cfg.ValidateSMS(); err != nil {
					return err
				}
			}

			roster, lottery, err := loadGame(args[0])
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			tpl, err := notify.CompileTextTemplate(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			match, err := notify.NewGlobMatcher(args[2:])
			if err != nil {
				return err
			}

			d := &notify.Dispatcher{Roster: roster, Lottery: lottery, Match: match}
			report, err := d.SendTexts(cmd.Context(), tpl, notify.NewSMSSender(a.cfg.SMS, force))
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "actually send the messages")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <game>",
		Short: "List the recorded draws of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			if history == nil {
				return errors.New("no history database: set TOMBOLA_HISTORY_DB")
			}
			defer history.Close()

			runs, err := history.ListRuns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d assignments\n",
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.ID, run.Assignments)
			}
			return nil
		},
	}
}
