// Package status defines the result taxonomy shared by the service layer.
// Services report outcomes as values instead of raising errors; only the API
// layer turns a status into an HTTP code.
package status

import "fmt"

const (
	Success = "success"
	Warning = "warning"
	Error   = "error"
)

// Result is the common outcome shape returned by service-layer operations.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func OK(format string, args ...any) Result {
	return Result{Status: Success, Message: fmt.Sprintf(format, args...)}
}

func Warn(format string, args ...any) Result {
	return Result{Status: Warning, Message: fmt.Sprintf(format, args...)}
}

func Err(format string, args ...any) Result {
	return Result{Status: Error, Message: fmt.Sprintf(format, args...)}
}

// IsError reports whether the result carries a failed status.
func (r Result) IsError() bool { return r.Status == Error }
