package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/moyoez/detectview/history"
	"github.com/moyoez/detectview/monitor"
	"github.com/moyoez/detectview/notify"
	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/transfer"
	"github.com/moyoez/detectview/types"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlags(&appCfg, cfg)
	tool.DefaultLogger.Debugf("Detection server: %s", appCfg.Server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	client := transfer.New(appCfg.Server, tool.RequestTimeout(appCfg))

	switch {
	case cfg.ShowStats:
		err = runStats(ctx, client, appCfg)
	case cfg.ClearCache:
		err = runClearCache(ctx, client)
	case cfg.ShowHistory:
		err = runHistory(ctx, appCfg)
	case cfg.Serve:
		err = runServe(ctx, client, appCfg, cfg)
	case cfg.UseFile != "":
		err = runOnce(ctx, client, appCfg, cfg)
	default:
		stop()
		flag.Usage()
		os.Exit(2)
	}
	stop()
	if err != nil {
		tool.DefaultLogger.Errorf("%s", types.UserMessage(err))
		tool.DefaultLogger.Debugf("%v", err)
		os.Exit(1)
	}
}

func newNotices(appCfg types.AppConfig, cfg types.Config) *notify.Center {
	center := notify.NewCenter(tool.NoticeTTL(appCfg))
	if !cfg.SkipNotify && appCfg.NotifySocket != "" {
		center.SetSocketPath(appCfg.NotifySocket)
	}
	return center
}

func newSession(ctx context.Context, client *transfer.Client, appCfg types.AppConfig, notices *notify.Center) *session.Session {
	return session.New(ctx, client, session.Options{
		PollInterval:    tool.PollInterval(appCfg),
		MaxPollDuration: tool.MaxPollDuration(appCfg),
		Notifier:        notices,
	})
}

func newMonitor(client *transfer.Client, appCfg types.AppConfig) *monitor.Monitor {
	m := monitor.New(client, tool.StatsInterval(appCfg))
	if appCfg.Ping {
		if host := tool.HostOf(appCfg.Server); host != "" {
			m.SetProber(monitor.NewPingProber(host))
		}
	}
	return m
}

// openHistory returns a nil store when no history path is configured.
func openHistory(appCfg types.AppConfig) (*history.Store, func(), error) {
	if appCfg.HistoryPath == "" {
		return nil, func() {}, nil
	}
	db, err := history.Open(appCfg.HistoryPath)
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close history database: %v", err)
		}
	}
	return history.NewStore(db), closeFn, nil
}
