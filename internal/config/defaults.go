package config

const (
	// DefaultCollectorLibPath is where the log collector jar lives, relative
	// to the user directory.
	DefaultCollectorLibPath = "lib"
	// DefaultCollectorJarName is the log collector jar injected into every
	// classpath.
	DefaultCollectorJarName = "testng-plugin-log-collector.jar"
	// DefaultMarkerAnnotation marks test methods and classes.
	DefaultMarkerAnnotation = "org.testng.annotations.Test"
	// DefaultEntryPoint is the runner's main class.
	DefaultEntryPoint = "org.testng.TestNG"
	// DefaultLogLevel is the slog level name used when none is configured.
	DefaultLogLevel = "info"
	// DefaultEnvFile is loaded from the user directory when present.
	DefaultEnvFile = ".env"
)

// Environment variables that override file and default settings.
const (
	EnvUserDirectory    = "NGORCH_USER_DIR"
	EnvCollectorLibPath = "NGORCH_COLLECTOR_LIB_PATH"
	EnvCollectorJarName = "NGORCH_COLLECTOR_JAR"
	EnvMarkerAnnotation = "NGORCH_MARKER_ANNOTATION"
	EnvEntryPoint       = "NGORCH_ENTRY_POINT"
	EnvTargetOS         = "NGORCH_TARGET_OS"
	EnvLogLevel         = "NGORCH_LOG_LEVEL"
)
