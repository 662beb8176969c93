package backfill

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "backfill")
