// Package logs configures the outputs and the format of the node logs.
package logs

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

const (
	logDirPermissions  = 0700
	logFilePermissions = 0600
)

// ErrUnknownFormat is returned for a log format other than text or json.
var ErrUnknownFormat = errors.New("unknown log format")

// ConfigurePersistentLogging copies every log line written to stdout into the
// given file. Missing parent directories are created.
func ConfigurePersistentLogging(logFileName string) error {
	logrus.WithField("logFileName", logFileName).Info("Logs will be made persistent")
	if err := os.MkdirAll(filepath.Dir(logFileName), logDirPermissions); err != nil {
		return errors.Wrap(err, "could not create log directory")
	}
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec G304
	if err != nil {
		return errors.Wrap(err, "could not open log file")
	}
	logrus.SetOutput(io.MultiWriter(logrus.StandardLogger().Out, f))
	logrus.Info("File logging initialized")
	return nil
}

// SetLoggingFormat sets the formatter of the standard logger. text uses the
// prefixed console formatter, json the logrus JSON formatter.
func SetLoggingFormat(format string) error {
	switch format {
	case "text":
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		logrus.SetFormatter(formatter)
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	return nil
}

// MaskCredentialsLogging hides the user info, the request URI and the fragment of a URL:
// [scheme:][//[userinfo@]host][/]path[?query][#fragment] becomes [scheme:][//[***@]host][/***][#***].
// Strings that are not URLs are returned unchanged.
func MaskCredentialsLogging(currURL string) string {
	u, err := url.Parse(currURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return currURL
	}
	masked := currURL
	if u.User != nil {
		masked = strings.Replace(masked, u.User.String(), "***", 1)
	}
	if len(u.RequestURI()) > 1 {
		masked = strings.Replace(masked, u.RequestURI(), "/***", 1)
	}
	if len(u.Fragment) > 0 {
		masked = strings.Replace(masked, u.RawFragment, "***", 1)
	}
	return masked
}
