package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/ehbot/internal/app"
	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/kafka"
	"github.com/nguyentranbao-ct/ehbot/internal/migration"
	"github.com/nguyentranbao-ct/ehbot/internal/poller"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/telegram"
	"github.com/nguyentranbao-ct/ehbot/internal/server"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
)

const commandTimeout = 30 * time.Second

var conf *config.Config

var rootCmd = &cobra.Command{
	Use:           "ehbot",
	Short:         "Telegram bot that keeps a short list of tags per chat",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := logger.Init(c.Log.Level, c.Log.Format); err != nil {
			return err
		}
		conf = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot in the configured BOT_MODE",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	a := app.Invoke(conf,
		server.StartServer,
		poller.StartPolling,
		kafka.StartConsumeUpdates,
	)
	if err := a.Err(); err != nil {
		return err
	}
	a.Run()
	return nil
}

var migrateFrom string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import a legacy tag dump into the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(migrateFrom)
		if err != nil {
			return fmt.Errorf("open legacy dump: %w", err)
		}
		defer f.Close()

		var m migration.Migrator
		a := app.New(conf, fx.Populate(&m))
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()
		if err := a.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = a.Stop(context.Background()) }()

		res, err := m.Migrate(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d chats, %d tags, %d users (%d skipped)\n",
			res.Chats, res.Tags, res.Users, res.Skipped)
		return nil
	},
}

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the webhook registered with the platform",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set [url]",
	Short: "Register WEBHOOK_URL, or the given url",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := conf.Webhook.URL
		if len(args) == 1 {
			url = args[0]
		}
		if url == "" {
			return fmt.Errorf("no webhook url given and WEBHOOK_URL is empty")
		}
		return setWebhook(cmd, url)
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the registered webhook so polling works again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setWebhook(cmd, "")
	},
}

func setWebhook(cmd *cobra.Command, url string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	if err := telegram.NewClient(conf).SetWebhook(ctx, url); err != nil {
		return err
	}
	if url == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "webhook removed")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", url)
	}
	return nil
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the bot identity behind BOT_TOKEN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()
		me, err := telegram.NewClient(conf).GetMe(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id: %d\nusername: @%s\nname: %s\n", me.ID, me.Username, me.FirstName)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "legacy tags json file")
	_ = migrateCmd.MarkFlagRequired("from")

	webhookCmd.AddCommand(webhookSetCmd, webhookDeleteCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, webhookCmd, whoamiCmd)
}

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.Root().Fatalw("command failed", "error", err)
	}
}
