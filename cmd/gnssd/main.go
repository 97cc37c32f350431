// Command gnssd runs the real-time RTCM decode, ephemeris propagation
// and WLS-SPP positioning pipeline against a configured byte source.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/bramburn/gnssproc/internal/config"
	"github.com/bramburn/gnssproc/internal/observability"
	"github.com/bramburn/gnssproc/internal/pipeline"
	"github.com/bramburn/gnssproc/internal/transport"
)

func main() {
	app := &cli.App{
		Name:  "gnssd",
		Usage: "RTCM 3.x decode and WLS-SPP positioning daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "path to the YAML configuration file",
				Required: true,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("gnssd: fatal error")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	log := logrus.New()
	if level, parseErr := logrus.ParseLevel(cfg.LogLevel); parseErr == nil {
		log.SetLevel(level)
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	source, err := buildSource(cfg.Transport)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	p := pipeline.New(cfg, source, log, metrics)

	if cfg.RecorderPath != "" {
		rec, recErr := pipeline.NewRecorder(cfg.RecorderPath+".rtcm", cfg.RecorderPath+".csv", time.Second)
		if recErr != nil {
			return fmt.Errorf("gnssd: %w", recErr)
		}
		defer rec.Close()
		p.SetRecorder(rec)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("gnssd: serving metrics")
			if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
				log.WithError(serveErr).Error("gnssd: metrics server stopped")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("gnssd: shutting down")
		cancel()
	}()

	go func() {
		for sol := range p.Solutions {
			log.WithFields(logrus.Fields{
				"status": sol.Status,
				"lat":    sol.LatDeg,
				"lon":    sol.LonDeg,
				"height": sol.HeightM,
				"nsat":   sol.NSat,
				"pdop":   sol.PDOP,
			}).Info("gnssd: solution")
		}
	}()

	p.Run(ctx)
	return nil
}

func buildSource(t config.Transport) (transport.Source, error) {
	switch t.Kind {
	case "ntrip":
		return transport.NewNTRIPSource(t.CasterURL, t.Mountpoint, t.Username, t.Password), nil
	case "serial":
		return transport.NewSerialSource(t.PortName, t.BaudRate), nil
	default:
		return nil, fmt.Errorf("gnssd: unknown transport kind %q", t.Kind)
	}
}
