// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hostif

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	debug = strings.Contains(os.Getenv("CBQ_DEBUG"), "hostif")

	log logrus.FieldLogger
)

// SetLogger sets global logger.
func SetLogger(logger logrus.FieldLogger) {
	log = logger
}

func init() {
	logger := logrus.New()
	if debug {
		logger.Level = logrus.DebugLevel
		logger.Debug("cbq: debug level enabled for hostif")
	}
	log = logger.WithField("logger", "cbq/hostif")
}
