package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/grovetools/llm-bridge/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	var bridgeErr *errors.BridgeError
	_ = stderrors.As(err, &bridgeErr)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "Configuration file not found: %v\n", detail(bridgeErr, "path"))
		fmt.Fprintln(h.Out, "Omit --config to run with built-in defaults.")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "Invalid configuration: %v\n", err)
		fmt.Fprintln(h.Out, "Run 'llm-bridge config validate' for details or 'llm-bridge config schema' for the format.")

	case errors.ErrCodeDaemonRunning:
		fmt.Fprintf(h.Out, "The daemon is already running (PID %v).\n", detail(bridgeErr, "pid"))
		fmt.Fprintln(h.Out, "Stop it with 'llm-bridge daemon stop'.")

	case errors.ErrCodeSocketBind:
		fmt.Fprintf(h.Out, "Cannot listen on %v: %v\n", detail(bridgeErr, "socket"), err)

	case errors.ErrCodeHooksInstall:
		fmt.Fprintf(h.Out, "Cannot update agent settings %v: %v\n", detail(bridgeErr, "path"), err)

	default:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
	}

	if h.Verbose && bridgeErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", bridgeErr.ToJSON())
	}
	return err
}

func detail(err *errors.BridgeError, key string) interface{} {
	if err == nil || err.Details == nil {
		return "?"
	}
	if v, ok := err.Details[key]; ok {
		return v
	}
	return "?"
}
