package domain

// CommandResponse is the result of building a command. It accumulates: a
// non-empty Errors marks failure while the other fields keep whatever was
// built before the failure.
type CommandResponse struct {
	Task                     string            `json:"task,omitempty"`
	Command                  string            `json:"command,omitempty"`
	Option                   string            `json:"option,omitempty"`
	WorkingDirectory         string            `json:"working_directory,omitempty"`
	TaskAttributes           map[string]string `json:"task_attributes,omitempty"`
	TaskEnvironmentVariables map[string]string `json:"task_environment_variables,omitempty"`
	Errors                   []string          `json:"errors,omitempty"`
}

// AddTaskAttribute records an opaque attribute for the task runner.
func (r *CommandResponse) AddTaskAttribute(key, value string) *CommandResponse {
	if r.TaskAttributes == nil {
		r.TaskAttributes = make(map[string]string)
	}
	r.TaskAttributes[key] = value
	return r
}

// AddError appends an error message.
func (r *CommandResponse) AddError(err error) *CommandResponse {
	r.Errors = append(r.Errors, err.Error())
	return r
}

// HasError reports whether any error was recorded.
func (r *CommandResponse) HasError() bool {
	return len(r.Errors) > 0
}

// CleanupRequest is the envelope for restoring a template after a run.
type CleanupRequest struct {
	CommandRequest *BuildCommandRequest `json:"command_request"`
	Environments   map[string]string    `json:"environments"`
}
