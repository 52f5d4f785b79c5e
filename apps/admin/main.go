package main

import (
	"log"
	"os"
	"strings"

	"github.com/parroquia/portal/core"
	logsvc "github.com/parroquia/portal/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	cli := newCommandLine(conf, logger)
	if err := cli.run(os.Args[1:]); err != nil {
		logger.Error("admin "+strings.Join(os.Args[1:], " ")+" failed", err)
		logger.Close()
		os.Exit(1)
	}
}
