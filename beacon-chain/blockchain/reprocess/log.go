package reprocess

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "reprocess")
