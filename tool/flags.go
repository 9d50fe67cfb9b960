package tool

import (
	"flag"

	"github.com/moyoez/detectview/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseServer, "useServer", "", "override detection server base URL")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override local viewer port (serve mode)")
	flag.StringVar(&cfg.UseHistoryPath, "useHistoryPath", "", "sqlite file for result history, empty disables it")
	flag.StringVar(&cfg.UseFile, "file", "", "image to upload and analyze")
	flag.StringVar(&cfg.UseFilter, "filter", "", "only print detections whose row contains this text")
	flag.StringVar(&cfg.UseOutDir, "outDir", ".", "directory for downloaded results and result images")
	flag.BoolVar(&cfg.UseDownload, "download", false, "download the result artifact after completion")
	flag.BoolVar(&cfg.Serve, "serve", false, "run the local viewer API")
	flag.BoolVar(&cfg.ShowStats, "stats", false, "print server stats and exit")
	flag.BoolVar(&cfg.ShowHistory, "history", false, "print recent results from the history store and exit")
	flag.BoolVar(&cfg.ClearCache, "clearCache", false, "clear the detection server's result cache and exit")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "do not forward notices to the unix socket")
	flag.BoolVar(&cfg.UsePing, "usePing", false, "probe the detection server with ICMP alongside /stats")
	flag.Parse()
	return cfg
}
