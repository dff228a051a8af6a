package scanner

import (
	"errors"
	"fmt"
)

// ErrNoURLsFound is returned when a crawl finished without discovering a
// single URL. That almost always means the target was unreachable from the
// engine, not that the site is empty.
var ErrNoURLsFound = errors.New("no URLs found: is the target URL reachable from the ZAP instance?")

// OptionError reports a "set option" call the engine did not accept.
type OptionError struct {
	Module string // "spider", "ajaxSpider", "ascan"
	Option string // e.g. "MaxDepth"
	Result string // the result the engine returned, if any
	Err    error
}

func (e *OptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuring %s option %s: %v", e.Module, e.Option, e.Err)
	}
	return fmt.Sprintf("configuring %s option %s: engine answered %q", e.Module, e.Option, e.Result)
}

func (e *OptionError) Unwrap() error { return e.Err }

// StartError reports a job the engine did not start.
type StartError struct {
	Module string
	Result string
	Err    error
}

func (e *StartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s could not be started: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("%s could not be started: engine answered %q", e.Module, e.Result)
}

func (e *StartError) Unwrap() error { return e.Err }
