package shell

// Command is implemented by every command type, providing a stable identifier
// for logging and metrics labels.
type Command interface {
	CommandType() string
}

const (
	// CommandHandlerRetriesMetric counts retry attempts by command type and error type.
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric records the backoff delay before each retry attempt.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay"

	// CommandHandlerMaxRetriesReachedMetric counts retry exhaustion by command type.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// LogAttrCommandType is the label key for the command type.
	LogAttrCommandType = "command_type"
)
