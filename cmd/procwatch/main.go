package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kestrel-systems/procwatch/internal/diag"
	"github.com/kestrel-systems/procwatch/internal/infrastructure/processmgr"
)

func main() {
	if len(os.Args) != 1 {
		fmt.Fprintln(os.Stderr, "procwatch takes no arguments; configuration is compiled in")
		os.Exit(1)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("procwatch")

	sup, err := processmgr.New(log)
	if err != nil {
		diag.DumpFatal(os.Stderr, "supervisor init", err)
		os.Exit(1)
	}

	code := sup.Run()
	sup.Close()
	os.Exit(code)
}
