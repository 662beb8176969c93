package features

import (
	"flag"
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	"github.com/urfave/cli/v2"
)

func TestInitFeatureConfig(t *testing.T) {
	defer Init(&Flags{})
	cfg := &Flags{
		DisableImportExecutionFCU: true,
	}
	Init(cfg)
	assert.Equal(t, true, Get().DisableImportExecutionFCU)
	assert.Equal(t, false, Get().EnableLightClient)
}

func TestInitWithReset(t *testing.T) {
	defer Init(&Flags{})
	Init(&Flags{
		EnableLightClient: true,
	})
	assert.Equal(t, true, Get().EnableLightClient)

	resetFunc := InitWithReset(&Flags{
		DisableImportExecutionFCU: true,
	})
	assert.Equal(t, false, Get().EnableLightClient)
	assert.Equal(t, true, Get().DisableImportExecutionFCU)

	resetFunc()
	assert.Equal(t, true, Get().EnableLightClient)
	assert.Equal(t, false, Get().DisableImportExecutionFCU)
}

func TestConfigureBeaconIngest(t *testing.T) {
	defer Init(&Flags{})
	app := cli.App{}
	set := flag.NewFlagSet("test", 0)
	set.Bool(disableImportExecutionFCU.Name, true, "test")
	set.Bool(enableLightClient.Name, false, "test")
	context := cli.NewContext(&app, set, nil)
	ConfigureBeaconIngest(context)
	c := Get()
	require.Equal(t, true, c.DisableImportExecutionFCU)
	require.Equal(t, false, c.EnableLightClient)
}
