package cli

import (
	"github.com/spf13/cobra"

	"github.com/temirov/contextmd/internal/builder"
	"github.com/temirov/contextmd/internal/services/mcp"
	"github.com/temirov/contextmd/internal/utils"
)

const (
	serveUse              = "serve"
	serveShortDescription = "serve the build_context tool over MCP stdio"
	serveLongDescription  = `Run a Model Context Protocol server on stdin and stdout.
Clients call the build_context tool with a directory and an optional output path; documents without a path are auto-numbered in --output-dir.`
)

func (runner commandRunner) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, settingsError := runner.resolveSettings(command)
			if settingsError != nil {
				return settingsError
			}
			sequence, sequenceError := runner.newSequence(settings.OutputDirectory)
			if sequenceError != nil {
				return sequenceError
			}
			logger := runner.dependencies.Logger
			service := mcp.NewService(mcp.Config{
				Name:            utils.ApplicationName,
				Version:         utils.GetApplicationVersion(),
				OutputDirectory: settings.OutputDirectory,
				Builder:         builder.New(builder.Options{Logger: logger}),
				Naming:          sequence,
				Logger:          logger,
			})
			return service.Run(command.Context())
		},
	}
}
