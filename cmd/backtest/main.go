package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evdnx/gosig"
	"github.com/evdnx/gosig/config"
	"github.com/evdnx/gosig/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

var (
	configPath  string
	envFile     string
	metricsAddr string
	showFills   bool
)

func main() {
	app := cli.NewApp()
	app.Name = "backtest"
	app.Usage = "run a signal/sizing backtest described by a YAML file"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Value:       "backtest.yaml",
			Usage:       "path to the run configuration",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "dotenv file with GOSIG_* overrides (default .env when present)",
			Destination: &envFile,
		},
		&cli.StringFlag{
			Name:        "metrics-addr",
			Usage:       "serve Prometheus metrics on this address, e.g. :9102",
			Destination: &metricsAddr,
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "execute the backtest and print a summary",
			Action: run,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "fills",
					Usage:       "also print every fill",
					Destination: &showFills,
				},
			},
		},
		{
			Name:   "validate",
			Usage:  "load and validate the configuration only",
			Action: validate,
		},
	}
	app.DefaultCommand = "run"

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	return config.Load(configPath, files...)
}

func validate(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s on %d tickers, sizer %q, feed %s\n",
		configPath, cfg.Strategy.Name, len(cfg.Tickers), cfg.Sizer.Name, cfg.Feed.Kind)
	return nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.Metrics.Listen = metricsAddr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bt, err := gosig.NewBacktest(ctx, cfg)
	if err != nil {
		return err
	}
	defer bt.Close()

	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, bt.Log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	res, err := bt.Run(ctx)
	if res != nil {
		printSummary(os.Stdout, cfg, res)
		if showFills {
			printFills(os.Stdout, res)
		}
	}
	return err
}

func serveMetrics(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_server_failed", logger.String("addr", addr), logger.Err(err))
		}
	}()
	log.Info("metrics_server_started", logger.String("addr", addr))
	return srv
}
