// Package config loads contextmd defaults from global and project YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/contextmd/internal/naming"
	"github.com/temirov/contextmd/internal/utils"
)

// DefaultTokenModel is the tokenizer model used when none is configured.
const DefaultTokenModel = "gpt-4o"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration is the on-disk configuration document.
// Pointer fields distinguish "unset" from an explicit false.
type ApplicationConfiguration struct {
	OutputDirectory string             `mapstructure:"output_dir" yaml:"output_dir"`
	Clipboard       *bool              `mapstructure:"clipboard" yaml:"clipboard"`
	Tokens          TokenConfiguration `mapstructure:"tokens" yaml:"tokens"`
}

// TokenConfiguration controls the token estimate printed after a build.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// Settings are the effective values after defaults are applied.
type Settings struct {
	OutputDirectory string
	Clipboard       bool
	TokensEnabled   bool
	TokenModel      string
}

// DefaultConfiguration returns the configuration written by InitializeConfiguration.
func DefaultConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		OutputDirectory: naming.DefaultDirectory,
		Clipboard:       boolPointer(false),
		Tokens: TokenConfiguration{
			Enabled: boolPointer(false),
			Model:   DefaultTokenModel,
		},
	}
}

// LoadApplicationConfiguration loads the global file and then overlays the local one.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath, false)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath, options.ExplicitFilePath != "")
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	return merged.Merge(localConfig), nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName)
}

// loadConfigurationFromPath reads one YAML file. A missing file yields an empty
// configuration unless required is set.
func loadConfigurationFromPath(path string, required bool) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) && !required {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var configuration ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&configuration); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	if override.OutputDirectory != "" {
		result.OutputDirectory = override.OutputDirectory
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (configuration TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := configuration
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// Settings resolves unset fields to their defaults.
func (configuration ApplicationConfiguration) Settings() Settings {
	settings := Settings{
		OutputDirectory: configuration.OutputDirectory,
		TokenModel:      configuration.Tokens.Model,
	}
	if settings.OutputDirectory == "" {
		settings.OutputDirectory = naming.DefaultDirectory
	}
	if settings.TokenModel == "" {
		settings.TokenModel = DefaultTokenModel
	}
	if configuration.Clipboard != nil {
		settings.Clipboard = *configuration.Clipboard
	}
	if configuration.Tokens.Enabled != nil {
		settings.TokensEnabled = *configuration.Tokens.Enabled
	}
	return settings
}

func boolPointer(value bool) *bool {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
