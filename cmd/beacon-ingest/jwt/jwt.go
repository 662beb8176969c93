// Package jwt implements the command generating the Engine API secret.
package jwt

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "jwt")

const secretLength = 32

var outputFileFlag = &cli.StringFlag{
	Name:  "output-file",
	Usage: "Target file path for the generated secret",
	Value: "jwt.hex",
}

// Command writes a random 32 byte hex encoded secret to a file, to be shared
// with the execution client through --jwt-secret.
var Command = &cli.Command{
	Name:  "generate-jwt-secret",
	Usage: "creates a random 32 byte hex string in a plaintext file to authenticate with the execution client",
	Flags: []cli.Flag{outputFileFlag},
	Action: func(cliCtx *cli.Context) error {
		path, err := generateSecretInFile(cliCtx.String(outputFileFlag.Name))
		if err != nil {
			return errors.Wrap(err, "could not generate secret")
		}
		log.WithField("path", path).Info("Wrote JWT secret")
		return nil
	},
}

func generateSecretInFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty output file")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0700); err != nil {
		return "", err
	}
	secret := make([]byte, secretLength)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, []byte(hexutil.Encode(secret)), 0600); err != nil {
		return "", err
	}
	return abs, nil
}
