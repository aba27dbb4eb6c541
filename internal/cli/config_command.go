package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/contextmd/internal/config"
)

const (
	configUse                  = "config"
	configShortDescription     = "manage contextmd configuration"
	configInitUse              = "init"
	configInitDescription      = "write the default configuration file"
	globalFlagName             = "global"
	globalFlagDescription      = "write ~/.contextmd/config.yaml instead of ./.contextmd.yaml"
	forceFlagName              = "force"
	forceFlagDescription       = "overwrite an existing configuration file"
	configurationWrittenFormat = "Configuration written to: %s\n"
)

func (runner commandRunner) newConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
	}

	var initializeGlobal bool
	var overwriteExisting bool
	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := runner.workingDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			target := config.InitTargetLocal
			if initializeGlobal {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            overwriteExisting,
				WorkingDirectory: workingDirectory,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), configurationWrittenFormat, destinationPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&initializeGlobal, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&overwriteExisting, forceFlagName, false, forceFlagDescription)

	configCommand.AddCommand(initCommand)
	return configCommand
}
