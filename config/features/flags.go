package features

import "github.com/urfave/cli/v2"

var (
	disableImportExecutionFCU = &cli.BoolFlag{
		Name:  "disable-import-execution-fcu",
		Usage: "Do not send engine forkchoice updates when an imported block changes the head or finality",
	}
	enableLightClient = &cli.BoolFlag{
		Name:  "enable-light-client",
		Usage: "Produce light client updates whenever the head changes past the Altair fork",
	}
)

// BeaconIngestFlags contains a list of all the feature flags that apply to the beacon-ingest client.
var BeaconIngestFlags = []cli.Flag{
	disableImportExecutionFCU,
	enableLightClient,
}
