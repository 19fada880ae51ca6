package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/attach"
	"github.com/zulandar/switchboard/internal/bot"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/platform/discord"
	"github.com/zulandar/switchboard/internal/relay"
	"github.com/zulandar/switchboard/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Switchboard daemon",
		Long:  "Connects to Discord, relays user DMs into staff threads, and runs the close/suspend scheduler.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	adapter, err := discord.New(discord.AdapterOpts{BotToken: cfg.BotToken})
	if err != nil {
		return err
	}

	var attachments relay.AttachmentStore
	if cfg.AttachmentDir != "" && cfg.SelfURL != "" {
		store, err := attach.NewStore(attach.StoreOpts{
			Dir:     cfg.AttachmentDir,
			BaseURL: cfg.SelfURL,
		})
		if err != nil {
			return err
		}
		attachments = store
	} else {
		fmt.Fprintln(out, "attachment storage disabled (set self_url and attachment_dir to enable)")
	}

	engine, err := relay.NewEngine(relay.EngineOpts{
		DB:          gormDB,
		Client:      adapter,
		Attachments: attachments,
		RelayConfig: cfg.Relay,
		SelfURL:     cfg.SelfURL,
	})
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Opts{
		DB:           gormDB,
		Engine:       engine,
		PollInterval: time.Duration(cfg.Scheduler.PollIntervalSec) * time.Second,
		SweepCron:    cfg.Scheduler.OrphanSweepCron,
		Out:          out,
	})
	if err != nil {
		return err
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		DB:       gormDB,
		Config:   cfg,
		Listener: adapter,
		Engine:   engine,
		Out:      out,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sched.Run(ctx); err != nil {
			log.Printf("scheduler: %v", err)
		}
	}()

	return daemon.Run(ctx)
}
