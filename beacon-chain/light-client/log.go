package lightclient

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "light-client")
