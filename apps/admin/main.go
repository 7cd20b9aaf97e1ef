package main

import (
	"os"

	"github.com/trezcool/schoolsite/core"
	logsvc "github.com/trezcool/schoolsite/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, conf)

	cli := &commandLine{conf: conf, logger: logger}
	if err := cli.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
