// Package autoload initialises the global zerolog logger from LOG_* variables
// when imported.
package autoload

import (
	configx "github.com/finnieassistant/finnie/pkg/config"
	logx "github.com/finnieassistant/finnie/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
