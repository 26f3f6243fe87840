package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"
	ErrWatchConfig   ErrorCode = "watch_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle errors
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Application errors
	ErrInitApp       ErrorCode = "init_app_failed"
	ErrMainLoop      ErrorCode = "main_loop_failed"
	ErrSetBrightness ErrorCode = "set_brightness_failed"
	ErrTimeout       ErrorCode = "operation_timeout"

	// Metrics errors
	ErrInitMetrics    ErrorCode = "init_metrics_failed"
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrCloseMetrics   ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrWatchConfig:     "Failed to watch config file",
	ErrShutdownFailed:  "Shutdown failed",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrTimeout:         "Operation timed out",
	ErrInitMetrics:     "Failed to initialize metrics",
	ErrCollectMetrics:  "Failed to collect metrics data",
	ErrCloseMetrics:    "Failed to close metrics connection",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrSetBrightness:   "Failed to set brightness",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
