package main

import (
	"flag"
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/cmd/beacon-ingest/flags"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func TestConfigureLogging(t *testing.T) {
	level := logrus.GetLevel()
	formatter := logrus.StandardLogger().Formatter
	defer func() {
		logrus.SetLevel(level)
		logrus.SetFormatter(formatter)
		flags.LogFormat = "text"
	}()

	app := cli.App{}
	set := flag.NewFlagSet("test", 0)
	set.String(flags.VerbosityFlag.Name, "debug", "")
	flags.LogFormat = "json"
	require.NoError(t, configureLogging(cli.NewContext(&app, set, nil)))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.Equal(t, true, ok)

	set = flag.NewFlagSet("test", 0)
	set.String(flags.VerbosityFlag.Name, "loud", "")
	require.ErrorContains(t, "not a valid logrus Level", configureLogging(cli.NewContext(&app, set, nil)))
}

func TestAppFlagsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range appFlags {
		for _, name := range f.Names() {
			assert.Equal(t, false, seen[name], "duplicate flag %s", name)
			seen[name] = true
		}
	}
	assert.Equal(t, true, seen["disable-import-execution-fcu"])
	assert.Equal(t, true, seen["enable-light-client"])
}
