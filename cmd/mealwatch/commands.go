package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/korjavin/mealwatch/pkg/config"
	"github.com/korjavin/mealwatch/pkg/extract"
	"github.com/korjavin/mealwatch/pkg/logger"
	"github.com/korjavin/mealwatch/pkg/menu"
	"github.com/korjavin/mealwatch/pkg/messages"
	"github.com/korjavin/mealwatch/pkg/openai"
	"github.com/korjavin/mealwatch/pkg/scheduler"
	"github.com/korjavin/mealwatch/pkg/source"
	"github.com/korjavin/mealwatch/pkg/state"
	"github.com/korjavin/mealwatch/pkg/storage"
	"github.com/korjavin/mealwatch/pkg/telegram"
)

type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mealwatch",
		Short:         "Track the dormitory weekly menu and record it when it changes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Global.SetLevel(cfg.LogLevel)
			a.cfg = cfg
			return nil
		},
	}

	root.AddCommand(a.runCmd(), a.parseCmd(), a.showCmd(), a.resetCmd())
	return root
}

func (a *app) runCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check for a new menu if the cadence says so, and print one status line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			service, err := a.newService(store)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 4*a.cfg.FetchTimeout+time.Minute)
			defer cancel()

			result, err := service.RunOnce(ctx, time.Now(), force)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "attempt an update regardless of the cadence")
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a local text dump, PDF or page image and print the snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			lines, err := a.newExtractor().Extract(cmd.Context(), doc)
			if err != nil {
				return err
			}

			now := time.Now().In(a.cfg.Location)
			snap, err := menu.NewParser(menu.WithClock(func() time.Time { return now })).Parse(lines)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored menu, the cadence mode and the stored weeks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			service := scheduler.New(store, nil, nil, nil, a.schedulerOptions())
			out := cmd.OutOrStdout()

			if snap := service.LoadSnapshot(); snap != nil {
				fmt.Fprintln(out, messages.FormatWeek(*snap))
			} else {
				fmt.Fprintln(out, "No menu stored yet.")
			}

			fmt.Fprintf(out, "\nMode: %s (trigger day %s)\n", service.Mode(), a.cfg.TriggerDay)

			history, err := service.History()
			if err != nil {
				return err
			}
			for _, key := range history {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the stored menu and the cadence, keeping the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(a.cfg.DataDir)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			for _, key := range []string{scheduler.ScheduleKey, state.CadenceKey} {
				if err := store.Delete(key); err != nil {
					return fmt.Errorf("failed to delete %s: %w", key, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reset")
			return nil
		},
	}
}

func (a *app) schedulerOptions() scheduler.Options {
	return scheduler.Options{
		TriggerDay: a.cfg.TriggerDay,
		Location:   a.cfg.Location,
	}
}

func (a *app) newExtractor() *extract.Dispatcher {
	if a.cfg.OpenAIAPIKey == "" {
		return extract.New(nil)
	}
	return extract.New(openai.New(a.cfg.OpenAIAPIKey, a.cfg.OpenAIAPIBase, a.cfg.OpenAIModel))
}

func (a *app) newService(store *storage.Store) (*scheduler.Service, error) {
	client, err := source.New(a.cfg.PageURL, a.cfg.BaseURL, a.cfg.FetchTimeout)
	if err != nil {
		return nil, err
	}

	var notifier scheduler.Notifier
	if a.cfg.NotificationsEnabled() {
		bot, err := telegram.New(a.cfg.BotToken)
		if err != nil {
			logger.Global.Warn("Notifications disabled: %v", err)
		} else {
			notifier = telegram.NewNotifier(bot, a.cfg.NotifyChatID)
		}
	}

	return scheduler.New(store, client, a.newExtractor(), notifier, a.schedulerOptions()), nil
}
