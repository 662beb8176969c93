/*
Package features defines which features are enabled for runtime
in order to selectively enable certain features to maintain a stable runtime.

The process for implementing new features using this package is as follows:
	1. Add a new CMD flag in flags.go, and place it in BeaconIngestFlags.
	2. Add a condition for the flag in ConfigureBeaconIngest below.
	3. Place any "new" behavior in the `if flagEnabled` statement.
	4. Place any "previous" behavior in the `else` statement.
	5. Use the following to enable your flag for tests:
	resetCfg := features.InitWithReset(&features.Flags{
		DisableImportExecutionFCU: true,
	})
	defer resetCfg()
*/
package features

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "flags")

// Flags is a struct to represent which features the client will perform on runtime.
type Flags struct {
	// DisableImportExecutionFCU stops the import pipeline from notifying the
	// execution engine of head and finality changes.
	DisableImportExecutionFCU bool
	EnableLightClient         bool // EnableLightClient produces light client updates when the head changes.
}

var (
	featureConfig *Flags
	featureLock   sync.RWMutex
)

// Get retrieves feature config.
func Get() *Flags {
	featureLock.RLock()
	defer featureLock.RUnlock()
	if featureConfig == nil {
		return &Flags{}
	}
	return featureConfig
}

// Init sets the global config equal to the config that is passed in.
func Init(c *Flags) {
	featureLock.Lock()
	defer featureLock.Unlock()
	featureConfig = c
}

// InitWithReset sets the global config and returns function that is used to reset configuration.
func InitWithReset(c *Flags) func() {
	var prevConfig Flags
	if featureConfig != nil {
		prevConfig = *featureConfig
	}
	resetFunc := func() {
		Init(&prevConfig)
	}
	Init(c)
	return resetFunc
}

// ConfigureBeaconIngest sets the global config based
// on what flags are enabled for the beacon-ingest client.
func ConfigureBeaconIngest(ctx *cli.Context) {
	cfg := &Flags{}
	if ctx.Bool(disableImportExecutionFCU.Name) {
		log.Warn("Disabled execution engine forkchoice updates on block import")
		cfg.DisableImportExecutionFCU = true
	}
	if ctx.Bool(enableLightClient.Name) {
		log.Info("Enabled light client updates")
		cfg.EnableLightClient = true
	}
	Init(cfg)
}
