package utils

const (
	// ApplicationName is the binary and MCP implementation name.
	ApplicationName = "contextmd"
	// GlobalConfigDirectoryName is the directory under the user's home that holds global configuration.
	GlobalConfigDirectoryName = ".contextmd"
	// ConfigFileName is the configuration file name inside GlobalConfigDirectoryName.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the project-level configuration file looked up in the working directory.
	LocalConfigFileName = ".contextmd.yaml"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes the fatal log line written by main.
	ApplicationExecutionFailedMessage = "application execution failed"
)
