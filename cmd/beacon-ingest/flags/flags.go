// Package flags defines the command line flags of the beacon-ingest node.
package flags

import (
	cmdflags "github.com/prysmaticlabs/beacon-ingest/cmd/flags"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// LogFormat is the destination of the --log-format flag.
var LogFormat string

var (
	// DataDirFlag is the directory of the database.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases",
		Value: DefaultDataDir(),
	}
	// ClearDB removes any previous database before starting.
	ClearDB = &cli.BoolFlag{
		Name:  "clear-db",
		Usage: "Removes the database from the data directory before starting",
	}
	// ExecutionEngineEndpoint is the Engine API endpoint, an http(s) URL or an IPC path.
	ExecutionEngineEndpoint = &cli.StringFlag{
		Name:  "execution-endpoint",
		Usage: "An http endpoint or IPC path of the execution client Engine API. Forkchoice updates are not sent when empty",
	}
	// ExecutionJWTSecretFlag is the file holding the hex encoded Engine API secret.
	ExecutionJWTSecretFlag = &cli.StringFlag{
		Name:  "jwt-secret",
		Usage: "Path to a file containing a hex-encoded 32 byte secret used to authenticate with the execution client over HTTP",
	}
	// ChainConfigFileFlag overrides the mainnet chain configuration.
	ChainConfigFileFlag = &cli.StringFlag{
		Name:  "chain-config-file",
		Usage: "Path to a YAML file with chain config values",
	}
	// AnchorBlockFlag is a JSON encoded signed block the node starts from.
	AnchorBlockFlag = &cli.StringFlag{
		Name:  "anchor-block",
		Usage: "Path to a JSON encoded signed beacon block to start the chain from. Requires --anchor-state",
	}
	// AnchorStateFlag is the JSON encoded post-state of the anchor block.
	AnchorStateFlag = &cli.StringFlag{
		Name:  "anchor-state",
		Usage: "Path to a JSON encoded post-state of the anchor block. Requires --anchor-block",
	}
	// ReprocessTTLFlag bounds how long operations wait for an unknown block.
	ReprocessTTLFlag = &cli.DurationFlag{
		Name:  "reprocess-ttl",
		Usage: "How long operations wait for an unknown block before they are dropped",
		Value: defaultReprocessTTL,
	}
	// VerbosityFlag sets the log level.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: logrus.InfoLevel.String(),
	}
	// LogFormatFlag selects the log formatter.
	LogFormatFlag = cmdflags.EnumValue{
		Name:        "log-format",
		Usage:       "Specify log formatting",
		Enum:        []string{"text", "json"},
		Value:       "text",
		Destination: &LogFormat,
	}.GenericFlag()
	// LogFileName persists the logs to a file.
	LogFileName = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Specify log file name, relative or absolute",
	}
	// DisableMonitoringFlag disables the metrics and health endpoints.
	DisableMonitoringFlag = &cli.BoolFlag{
		Name:  "disable-monitoring",
		Usage: "Disables the prometheus metrics and health endpoints",
	}
	// MonitoringHostFlag is the host of the metrics endpoint.
	MonitoringHostFlag = &cli.StringFlag{
		Name:  "monitoring-host",
		Usage: "Host used for listening and responding metrics for prometheus",
		Value: "127.0.0.1",
	}
	// MonitoringPortFlag is the port of the metrics endpoint.
	MonitoringPortFlag = &cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port used for listening and responding metrics for prometheus",
		Value: 8080,
	}
)
