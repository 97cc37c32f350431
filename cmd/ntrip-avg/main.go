// Command ntrip-avg surveys in a static antenna's position: it runs the
// RTCM decode/WLS-SPP pipeline against a caster mountpoint, averages the
// resulting solutions, and writes the mean latitude/longitude/altitude
// plus its dispersion to a JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bramburn/gnssproc/internal/config"
	"github.com/bramburn/gnssproc/internal/ntrip"
	"github.com/bramburn/gnssproc/internal/pipeline"
	"github.com/bramburn/gnssproc/internal/position"
	"github.com/bramburn/gnssproc/internal/transport"
)

func main() {
	address := flag.String("address", "", "NTRIP caster address (e.g. 192.168.0.64)")
	port := flag.String("port", "2101", "NTRIP caster port")
	username := flag.String("user", "", "Username for NTRIP caster")
	password := flag.String("pass", "", "Password for NTRIP caster")
	mountpoint := flag.String("mount", "", "Mountpoint name")
	outputFile := flag.String("output", "", "Output file path (default: ./base_position_avg.json)")
	minFixQuality := flag.Int("min-fix", 1, "Minimum fix quality to accept (0=none, 1=autonomous, 6=estimated)")
	sampleCount := flag.Int("samples", 60, "Number of solutions to average")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall timeout for the survey")
	listMounts := flag.Bool("list-mounts", false, "Query the caster's sourcetable and exit")
	flag.Parse()

	if *address == "" {
		fmt.Println("Error: -address is required")
		flag.Usage()
		os.Exit(1)
	}

	if *listMounts {
		casterURL := fmt.Sprintf("http://%s:%s", *address, *port)
		client := ntrip.NewClient(casterURL, *username, *password)
		table, err := client.GetSourcetable(context.Background())
		if err != nil {
			fmt.Printf("Error fetching sourcetable: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Mountpoints at %s:\n", casterURL)
		for _, m := range table.Mounts {
			fmt.Printf("  %-20s %-20s %s\n", m.Name, m.Format, m.FormatDetails)
		}
		return
	}

	if *mountpoint == "" {
		fmt.Println("Error: -mount is required (or pass -list-mounts to discover one)")
		flag.Usage()
		os.Exit(1)
	}
	if *outputFile == "" {
		execPath, err := os.Executable()
		if err != nil {
			execPath = "."
		}
		*outputFile = filepath.Join(filepath.Dir(execPath), "base_position_avg.json")
	}
	if *sampleCount <= 0 {
		fmt.Println("Error: -samples must be greater than 0")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Transport = config.Transport{
		Kind:       "ntrip",
		CasterURL:  fmt.Sprintf("http://%s:%s", *address, *port),
		Mountpoint: *mountpoint,
		Username:   *username,
		Password:   *password,
	}

	source := transport.NewNTRIPSource(cfg.Transport.CasterURL, *mountpoint, *username, *password)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	p := pipeline.New(cfg, source, log, nil)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived shutdown signal")
		cancel()
	}()

	averager := position.NewPositionAverager(*minFixQuality)

	fmt.Printf("Connecting to NTRIP caster at %s/%s...\n", cfg.Transport.CasterURL, *mountpoint)
	fmt.Printf("Collecting up to %d solutions (minimum fix: %s). Press Ctrl+C to stop early.\n",
		*sampleCount, position.GetFixQualityDescription(*minFixQuality))

	go p.Run(ctx)

	collected := 0
	for sol := range p.Solutions {
		pos := position.FromSolution(sol)
		sample := position.PositionSample{
			Latitude:   pos.Latitude,
			Longitude:  pos.Longitude,
			Altitude:   pos.Altitude,
			FixQuality: pos.FixQuality,
			Timestamp:  pos.Timestamp,
		}

		if averager.AddSample(sample) {
			collected++
			fmt.Printf("Sample %d/%d collected (fix: %s)\r", collected, *sampleCount, position.GetFixQualityDescription(sample.FixQuality))
			if collected >= *sampleCount {
				cancel()
			}
		} else {
			fmt.Printf("Current fix: %s (not used)\r", position.GetFixQualityDescription(sample.FixQuality))
		}
	}

	processResults(averager, *outputFile)
}

func processResults(averager *position.PositionAverager, outputFile string) {
	if averager.GetSampleCount() == 0 {
		fmt.Println("\nNo position samples collected.")
		return
	}

	pos, stats, err := averager.GetAveragedPosition()
	if err != nil {
		fmt.Printf("\nError getting averaged position: %v\n", err)
		return
	}

	fmt.Println("\nAveraged position:")
	fmt.Printf("  Latitude: %.8f (+/-%.8f)\n", pos.Latitude, stats.LatitudeStdDev)
	fmt.Printf("  Longitude: %.8f (+/-%.8f)\n", pos.Longitude, stats.LongitudeStdDev)
	fmt.Printf("  Altitude: %.2f meters (+/-%.2f)\n", pos.Altitude, stats.AltitudeStdDev)
	fmt.Printf("  Sample Count: %d\n", stats.SampleCount)
	fmt.Printf("  Duration: %.1f seconds\n", stats.Duration)
	fmt.Printf("  Timestamp: %s\n", pos.Timestamp.Format(time.RFC3339))

	fmt.Println("  Fix Quality Distribution:")
	for quality, count := range stats.FixQualityDistribution {
		fmt.Printf("    %s: %d samples\n", position.GetFixQualityDescription(quality), count)
	}

	if err := position.SavePositionWithStats(pos, stats, outputFile); err != nil {
		fmt.Printf("Error saving position to file: %v\n", err)
	} else {
		fmt.Printf("Position saved to %s\n", outputFile)
	}
}
