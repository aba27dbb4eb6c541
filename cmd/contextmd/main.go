package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/temirov/contextmd/internal/cli"
	"github.com/temirov/contextmd/internal/utils"
)

// main is the entry point for the contextmd command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	applicationExecutionError := cli.Execute(ctx, loggerInstance)
	stop()
	if applicationExecutionError != nil {
		// fang has already printed the error.
		loggerInstance.Debug(utils.ApplicationExecutionFailedMessage, zap.Error(applicationExecutionError))
		_ = loggerInstance.Sync()
		os.Exit(1)
	}
	_ = loggerInstance.Sync()
}
