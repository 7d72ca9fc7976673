package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/fastygo/datewheel/internal/app"
	"github.com/fastygo/datewheel/internal/config"
	"github.com/fastygo/datewheel/internal/services/lifecycle"
	"github.com/fastygo/datewheel/pkg/logger"
	"github.com/fastygo/datewheel/usecase"
)

func printHelp(w io.Writer, d *usecase.Dispatcher) {
	fmt.Fprintln(w, "datewheel: pick tonight's date from the wheel")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  datewheel [-json] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, line := range d.Usage() {
		fmt.Fprintln(w, "  "+line)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("datewheel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: "console",
		Output:   "stderr",
	})
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	ctx, cancel := manager.Listen(context.Background())
	defer cancel()
	defer func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			zapLogger.Warn("shutdown", zap.Error(err))
		}
	}()

	wheel, err := app.Build(ctx, cfg, zapLogger, manager)
	if err != nil {
		fmt.Fprintf(stderr, "startup: %v\n", err)
		return 1
	}

	d := usecase.NewDispatcher()
	register(d, wheel, cfg.Schedule.Location)

	if fs.NArg() == 0 || fs.Arg(0) == "help" {
		printHelp(stdout, d)
		return 0
	}

	name := fs.Arg(0)
	result, err := d.Execute(ctx, name, fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return 1
		}
		return 0
	}
	render(stdout, result)
	return 0
}
