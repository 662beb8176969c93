// Package flags holds cli helpers shared by the beacon-ingest commands.
package flags

// via https://github.com/urfave/cli/issues/602

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

// EnumValue is a string flag value restricted to a fixed set of values.
type EnumValue struct {
	Name        string
	Usage       string
	Destination *string
	Enum        []string
	Value       string
}

// Set accepts value only when it is one of Enum.
func (e *EnumValue) Set(value string) error {
	for _, allowed := range e.Enum {
		if allowed == value {
			*e.Destination = value
			return nil
		}
	}
	return fmt.Errorf("allowed values are %s", strings.Join(e.Enum, ", "))
}

func (e *EnumValue) String() string {
	if e.Destination == nil || *e.Destination == "" {
		return e.Value
	}
	return *e.Destination
}

// GenericFlag wraps the EnumValue in a cli.GenericFlag. The destination starts at
// the default value.
func (e EnumValue) GenericFlag() *cli.GenericFlag {
	*e.Destination = e.Value
	var g cli.Generic = &e
	return &cli.GenericFlag{Name: e.Name, Usage: e.Usage + " (" + strings.Join(e.Enum, ", ") + ")", Value: g}
}
