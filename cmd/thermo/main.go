package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/five82/thermo/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/thermo/config.toml)")
	host := flag.String("host", "", "gateway host[:port] serving /ws (overrides config)")
	heater := flag.String("heater", "", "show heater control: true or false (overrides config)")
	chart := flag.String("chart", "", "chart mode: static, live or off (overrides config and prefs)")
	prefsPath := flag.String("prefs", "", "preferences file path (optional)")
	flag.Parse()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Host:       *host,
		Chart:      *chart,
	}
	if *heater != "" {
		on, err := strconv.ParseBool(*heater)
		if err != nil {
			fmt.Fprintf(os.Stderr, "thermo: invalid -heater value %q\n", *heater)
			return 2
		}
		opts.Heater = &on
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "thermo: %v\n", err)
		return 1
	}
	return 0
}
