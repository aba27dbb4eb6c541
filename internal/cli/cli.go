// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/contextmd/internal/config"
	"github.com/temirov/contextmd/internal/naming"
	"github.com/temirov/contextmd/internal/services/clipboard"
	"github.com/temirov/contextmd/internal/tokenizer"
	"github.com/temirov/contextmd/internal/utils"
)

const (
	defaultPath          = "."
	rootUse              = "contextmd [directories...]"
	rootShortDescription = "bundle project sources into one Markdown context document"
	rootLongDescription  = `contextmd walks each directory, renders its tree, and embeds the text of recognized source files into a Markdown document ready to paste into an LLM prompt.
Documents are written to --output-dir under an auto-numbered name, or to --output when a single directory is given.`
	rootUsageExample = `  # Describe the current directory
  contextmd

  # Write the document for one project to a fixed path
  contextmd ./service -o service.md

  # Describe two projects, copy both documents, and estimate tokens
  contextmd ./api ./web --copy --tokens`

	outputFlagName                   = "output"
	outputFlagShorthand              = "o"
	outputDirectoryFlagName          = "output-dir"
	copyFlagName                     = "copy"
	tokensFlagName                   = "tokens"
	modelFlagName                    = "model"
	configFlagName                   = "config"
	outputFlagDescription            = "write the document to this path (single directory only)"
	outputDirectoryFlagDescription   = "directory for auto-numbered documents"
	copyFlagDescription              = "copy the generated documents to the clipboard"
	tokensFlagDescription            = "print an estimated token count for each document"
	modelFlagDescription             = "tokenizer model used for the token estimate"
	configFlagDescription            = "configuration file used instead of ./" + utils.LocalConfigFileName
	errorWorkingDirectoryFormat      = "unable to determine working directory: %w"
	errorLoadConfigurationFormat     = "load configuration: %w"
	outputDirectoryPermissions       = 0o755
	errorCreateOutputDirectoryFormat = "create output directory %s: %w"
)

// Dependencies are the collaborators used by the commands. Zero values select production implementations.
type Dependencies struct {
	Logger           *zap.Logger
	Copier           clipboard.Copier
	Clock            func() time.Time
	CounterFactory   func(model string) (tokenizer.Counter, string, error)
	WorkingDirectory string
}

func (dependencies Dependencies) withDefaults() Dependencies {
	resolved := dependencies
	if resolved.Logger == nil {
		resolved.Logger = zap.NewNop()
	}
	if resolved.Copier == nil {
		resolved.Copier = clipboard.NewService()
	}
	if resolved.Clock == nil {
		resolved.Clock = time.Now
	}
	if resolved.CounterFactory == nil {
		resolved.CounterFactory = tokenizer.NewCounter
	}
	return resolved
}

// Execute runs the contextmd application with styled help and error output.
func Execute(ctx context.Context, logger *zap.Logger) error {
	rootCommand := NewRootCommand(Dependencies{Logger: logger})
	return fang.Execute(
		ctx,
		rootCommand,
		fang.WithVersion(utils.GetApplicationVersion()),
		fang.WithoutManpage(),
	)
}

// rootOptions stores the values of the root command flags.
type rootOptions struct {
	outputPath      string
	outputDirectory string
	copyEnabled     bool
	tokensEnabled   bool
	tokenModel      string
	configPath      string
}

// commandRunner carries resolved dependencies and flag values into command handlers.
type commandRunner struct {
	dependencies Dependencies
	options      *rootOptions
}

// NewRootCommand builds the contextmd command tree.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	runner := commandRunner{
		dependencies: dependencies.withDefaults(),
		options:      &rootOptions{},
	}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			settings, settingsError := runner.resolveSettings(command)
			if settingsError != nil {
				return settingsError
			}
			return runner.runBuilds(command.Context(), command, arguments, settings)
		},
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&runner.options.configPath, configFlagName, "", configFlagDescription)
	persistentFlags.StringVar(&runner.options.outputDirectory, outputDirectoryFlagName, naming.DefaultDirectory, outputDirectoryFlagDescription)

	flags := rootCommand.Flags()
	flags.StringVarP(&runner.options.outputPath, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	registerBooleanFlag(flags, &runner.options.copyEnabled, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(flags, &runner.options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	flags.StringVar(&runner.options.tokenModel, modelFlagName, config.DefaultTokenModel, modelFlagDescription)

	rootCommand.AddCommand(
		runner.newServeCommand(),
		runner.newConfigCommand(),
	)
	return rootCommand
}

func (runner commandRunner) workingDirectory() (string, error) {
	if runner.dependencies.WorkingDirectory != "" {
		return runner.dependencies.WorkingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}

// resolveSettings loads configuration files and lets explicitly set flags override them.
func (runner commandRunner) resolveSettings(command *cobra.Command) (config.Settings, error) {
	workingDirectory, workingDirectoryError := runner.workingDirectory()
	if workingDirectoryError != nil {
		return config.Settings{}, workingDirectoryError
	}
	applicationConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: runner.options.configPath,
	})
	if loadError != nil {
		return config.Settings{}, fmt.Errorf(errorLoadConfigurationFormat, loadError)
	}
	settings := applicationConfiguration.Settings()

	flags := command.Flags()
	if flags.Changed(outputDirectoryFlagName) {
		settings.OutputDirectory = runner.options.outputDirectory
	}
	if flags.Changed(copyFlagName) {
		settings.Clipboard = runner.options.copyEnabled
	}
	if flags.Changed(tokensFlagName) {
		settings.TokensEnabled = runner.options.tokensEnabled
	}
	if flags.Changed(modelFlagName) {
		settings.TokenModel = runner.options.tokenModel
	}
	return settings, nil
}

// newSequence returns the naming strategy for documents written to outputDirectory.
func (runner commandRunner) newSequence(outputDirectory string) (*naming.DatedSequence, error) {
	if mkdirError := os.MkdirAll(outputDirectory, outputDirectoryPermissions); mkdirError != nil {
		return nil, fmt.Errorf(errorCreateOutputDirectoryFormat, outputDirectory, mkdirError)
	}
	sequence := naming.NewDatedSequence(outputDirectory)
	sequence.Clock = runner.dependencies.Clock
	return sequence, nil
}
