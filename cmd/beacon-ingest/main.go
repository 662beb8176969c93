// Package main starts the beacon-ingest node: the block import pipeline of a
// beacon node backed by a local database and an execution engine.
package main

import (
	"os"
	runtimeDebug "runtime/debug"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-ingest/beacon-chain/node"
	"github.com/prysmaticlabs/beacon-ingest/cmd/beacon-ingest/flags"
	"github.com/prysmaticlabs/beacon-ingest/cmd/beacon-ingest/jwt"
	"github.com/prysmaticlabs/beacon-ingest/config/features"
	"github.com/prysmaticlabs/beacon-ingest/io/logs"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	flags.DataDirFlag,
	flags.ClearDB,
	flags.ExecutionEngineEndpoint,
	flags.ExecutionJWTSecretFlag,
	flags.ChainConfigFileFlag,
	flags.AnchorBlockFlag,
	flags.AnchorStateFlag,
	flags.ReprocessTTLFlag,
	flags.VerbosityFlag,
	flags.LogFormatFlag,
	flags.LogFileName,
	flags.DisableMonitoringFlag,
	flags.MonitoringHostFlag,
	flags.MonitoringPortFlag,
}

func init() {
	appFlags = append(appFlags, features.BeaconIngestFlags...)
}

func main() {
	app := cli.App{
		Name:     "beacon-ingest",
		Usage:    "imports verified beacon blocks into storage, fork choice and the execution engine",
		Action:   startNode,
		Flags:    appFlags,
		Commands: []*cli.Command{jwt.Command},
		Before:   configureLogging,
	}

	defer func() {
		if x := recover(); x != nil {
			log.Errorf("Runtime panic: %v\n%v", x, string(runtimeDebug.Stack()))
			panic(x)
		}
	}()

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// configureLogging applies the verbosity, format and log file flags.
func configureLogging(ctx *cli.Context) error {
	level, err := logrus.ParseLevel(ctx.String(flags.VerbosityFlag.Name))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if err := logs.SetLoggingFormat(flags.LogFormat); err != nil {
		return err
	}
	if logFile := ctx.String(flags.LogFileName.Name); logFile != "" {
		if err := logs.ConfigurePersistentLogging(logFile); err != nil {
			log.WithError(err).Error("Failed to configure logging to disk")
		}
	}
	return nil
}

func startNode(ctx *cli.Context) error {
	if args := ctx.Args(); args.Len() > 0 {
		return errors.Errorf("unknown command: %s", args.First())
	}
	beacon, err := node.New(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to start beacon-ingest node")
	}
	beacon.Start()
	return nil
}
