package params

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// LoadChainConfigFile loads a yaml chain config, converting hex values into a
// format the yaml parser understands, and applies it on top of the preset it
// names. Unknown keys are logged and ignored.
func LoadChainConfigFile(chainConfigFileName string) (*BeaconChainConfig, error) {
	yamlFile, err := os.ReadFile(chainConfigFileName) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read chain config file")
	}
	return UnmarshalConfig(yamlFile)
}

// UnmarshalConfig parses a yaml chain config on top of the preset it names.
func UnmarshalConfig(yamlFile []byte) (*BeaconChainConfig, error) {
	// Default to using mainnet.
	conf := MainnetConfig()
	// To track if config name is defined inside config file.
	hasConfigName := false
	lines := strings.Split(string(yamlFile), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "CONFIG_NAME") {
			hasConfigName = true
		}
		if strings.HasPrefix(line, "PRESET_BASE: 'minimal'") ||
			strings.HasPrefix(line, `PRESET_BASE: "minimal"`) ||
			strings.HasPrefix(line, "PRESET_BASE: minimal") {
			conf = MinimalSpecConfig()
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, "0x") {
			converted, err := replaceHexStringWithYAMLFormat(line)
			if err != nil {
				return nil, err
			}
			lines[i] = converted
		}
	}
	yamlFile = []byte(strings.Join(lines, "\n"))
	if err := yaml.UnmarshalStrict(yamlFile, conf); err != nil {
		if _, ok := err.(*yaml.TypeError); !ok {
			return nil, errors.Wrap(err, "failed to parse chain config yaml file")
		}
		log.WithError(err).Error("There were some issues parsing the config from a yaml file")
	}
	if !hasConfigName {
		conf.ConfigName = "devnet"
	}
	log.Debugf("Config file values: %+v", conf)
	return conf, nil
}

// replaceHexStringWithYAMLFormat rewrites `KEY: 0xabcd` as a yaml byte sequence.
func replaceHexStringWithYAMLFormat(line string) (string, error) {
	parts := strings.SplitN(line, "0x", 2)
	decoded, err := hex.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", errors.Wrapf(err, "could not decode hex value in %q", line)
	}
	if len(decoded) == 1 {
		fixedByte, err := yaml.Marshal(decoded[0])
		if err != nil {
			return "", err
		}
		return parts[0] + string(fixedByte), nil
	}
	seq := make([]string, len(decoded))
	for i, b := range decoded {
		seq[i] = "- " + strconv.Itoa(int(b))
	}
	return parts[0] + "\n" + strings.Join(seq, "\n"), nil
}
