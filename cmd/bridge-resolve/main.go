// bridge-resolve is the one-shot pipeline: parse an odr-dabmux configuration,
// resolve every service against RadioDNS and print the slideshow and EPG
// bridge lists as JSON on stdout. Warnings go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/edirooss/dabdns-bridge/internal/boostinfo"
	"github.com/edirooss/dabdns-bridge/internal/bridge"
	"github.com/edirooss/dabdns-bridge/internal/mux"
	"github.com/edirooss/dabdns-bridge/internal/radiodns"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to the odr-dabmux configuration file")
	timeout := flag.Duration("timeout", 5*time.Second, "per-lookup DNS timeout")
	parallelism := flag.Int("parallelism", 4, "bounded parallelism for directory lookups")
	dump := flag.Bool("dump", false, "dump the parsed tree and built model, then exit")
	flag.Parse()

	if *configPath == "" {
		fmt.Println("Usage: ./bridge-resolve -config=<odr-dabmux config file> [-dump]")
		os.Exit(1)
	}

	log := buildLogger()
	log = log.Named("main")

	f, err := os.Open(*configPath)
	if err != nil {
		log.Fatal("cannot open config", zap.Error(err))
	}
	tree, err := boostinfo.Parse(f)
	f.Close()
	if err != nil {
		log.Fatal("config parse failed", zap.Error(err))
	}

	ens, services, err := mux.NewBuilder(log).Build(tree.Root())
	if err != nil {
		log.Fatal("model build failed", zap.Error(err))
	}

	if *dump {
		fmt.Print(tree.String())
		spew.Fdump(os.Stderr, ens, services)
		return
	}

	resolver, err := radiodns.NewClient(log, radiodns.ClientOptions{Timeout: *timeout})
	if err != nil {
		log.Fatal("radiodns client creation failed", zap.Error(err))
	}

	start := time.Now()
	result := bridge.NewAggregator(log, resolver, *parallelism).Resolve(context.Background(), services)
	log.Info("resolution complete",
		zap.Int("services", len(services)),
		zap.Duration("took", time.Since(start)),
	)

	for _, w := range result.Warnings {
		log.Warn(w.String(), zap.String("kind", string(w.Kind)))
	}

	fmt.Println("Slideshow Services:")
	printJSON(log, result.Slideshow)
	fmt.Println("EPG Services:")
	printJSON(log, result.EPG)
}

func printJSON(log *zap.Logger, v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal("encode failed", zap.Error(err))
	}
	fmt.Println(string(out))
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.InfoLevel)
	return zap.Must(logConfig.Build())
}
