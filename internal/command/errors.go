package command

import "fmt"

// BuildError is a failure to construct a command. It ends up in the
// response's error list rather than being returned.
type BuildError struct {
	Task string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s command: %v", e.Task, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
