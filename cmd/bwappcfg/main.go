// Command bwappcfg is the developer CLI for AppConfig content and deployments.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/basewarphq/bwappcfg/appcfgcontent"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type App struct {
	Version kong.VersionFlag `help:"Show version."`
	Verbose bool             `short:"v" help:"Enable debug logging."`

	LayerArn    LayerArnCmd    `cmd:"" name:"layer-arn" help:"Print the AppConfig Lambda extension layer ARN for a region."`
	ContentType ContentTypeCmd `cmd:"" name:"content-type" help:"Print the content type AppConfig would be given for a file."`
	Check       CheckCmd       `cmd:"" help:"Check that a configuration file is valid for hosting."`
	Deploy      DeployCmd      `cmd:"" help:"Run the deployments of a rollout plan, one at a time per environment."`
	IDs         IDsCmd         `cmd:"" name:"ids" help:"Print the AppConfig identifiers a deployment published."`
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return logger, nil
}

func newParser(app *App, out io.Writer) (*kong.Kong, error) {
	return kong.New(app,
		kong.Name("bwappcfg"),
		kong.Description("AppConfig content and deployment tooling."),
		kong.Vars{
			"version":   version,
			"max_bytes": strconv.Itoa(appcfgcontent.MaxHostedBytes),
		},
		kong.BindTo(out, (*io.Writer)(nil)),
		kong.Writers(out, os.Stderr),
	)
}

func run(args []string, out io.Writer) error {
	var app App
	parser, err := newParser(&app, out)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(app.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx.Bind(logger)

	return ctx.Run()
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
