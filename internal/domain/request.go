package domain

import (
	"encoding/json"
	"fmt"
)

// Execution mode identifiers as they appear on the wire.
const (
	ModeExec  = "exec"
	ModeAnt   = "ant"
	ModeMaven = "maven"
)

// ExecutionMode is one of ExecMode, AntMode or MavenMode.
type ExecutionMode interface {
	ModeID() string
	// TemplatePath is the suite document the user configured, possibly empty.
	TemplatePath() string
	isExecutionMode()
}

// ExecMode runs the test runner's entry point directly, e.g. "java".
type ExecMode struct {
	Command  string `json:"command"`
	Option   string `json:"option,omitempty"`
	Template string `json:"template,omitempty"`
}

// AntMode runs a build-file target.
type AntMode struct {
	BuildFile string `json:"build_file,omitempty"`
	Target    string `json:"target,omitempty"`
	Option    string `json:"option,omitempty"`
	Home      string `json:"home,omitempty"`
	Template  string `json:"template,omitempty"`
}

// MavenMode runs a project goal.
type MavenMode struct {
	PomFile  string `json:"pom_file,omitempty"`
	Goal     string `json:"goal,omitempty"`
	Option   string `json:"option,omitempty"`
	Home     string `json:"home,omitempty"`
	Template string `json:"template,omitempty"`
}

func (ExecMode) ModeID() string  { return ModeExec }
func (AntMode) ModeID() string   { return ModeAnt }
func (MavenMode) ModeID() string { return ModeMaven }

func (m ExecMode) TemplatePath() string  { return m.Template }
func (m AntMode) TemplatePath() string   { return m.Template }
func (m MavenMode) TemplatePath() string { return m.Template }

func (ExecMode) isExecutionMode()  {}
func (AntMode) isExecutionMode()   {}
func (MavenMode) isExecutionMode() {}

// BuildCommandRequest asks for the command that runs the selected materials.
type BuildCommandRequest struct {
	ExecutionMode ExecutionMode `json:"-"`
	TestScript    TestScript    `json:"test_script"`
	// Materials are the content identifiers selected for this run.
	Materials []string `json:"materials"`
}

// Selection returns the materials as a SelectionSet.
func (r *BuildCommandRequest) Selection() SelectionSet {
	return NewSelectionSet(r.Materials...)
}

type requestJSON struct {
	ExecutionMode json.RawMessage `json:"execution_mode"`
	TestScript    TestScript      `json:"test_script"`
	Materials     []string        `json:"materials"`
}

type modeHeader struct {
	ID string `json:"id"`
}

// MarshalJSON writes the execution mode with its "id" discriminator.
func (r BuildCommandRequest) MarshalJSON() ([]byte, error) {
	var mode json.RawMessage
	if r.ExecutionMode != nil {
		body, err := json.Marshal(r.ExecutionMode)
		if err != nil {
			return nil, err
		}
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, err
		}
		fields["id"] = r.ExecutionMode.ModeID()
		if mode, err = json.Marshal(fields); err != nil {
			return nil, err
		}
	}
	return json.Marshal(requestJSON{
		ExecutionMode: mode,
		TestScript:    r.TestScript,
		Materials:     r.Materials,
	})
}

// UnmarshalJSON decodes the execution mode variant selected by its "id".
func (r *BuildCommandRequest) UnmarshalJSON(data []byte) error {
	var raw requestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.TestScript = raw.TestScript
	r.Materials = raw.Materials
	r.ExecutionMode = nil
	if len(raw.ExecutionMode) == 0 || string(raw.ExecutionMode) == "null" {
		return nil
	}

	mode, err := DecodeExecutionMode(raw.ExecutionMode)
	if err != nil {
		return err
	}
	r.ExecutionMode = mode
	return nil
}

// DecodeExecutionMode decodes a JSON execution mode object.
func DecodeExecutionMode(data []byte) (ExecutionMode, error) {
	var header modeHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decode execution mode: %w", err)
	}

	switch header.ID {
	case ModeExec, "":
		var m ExecMode
		err := json.Unmarshal(data, &m)
		return m, err
	case ModeAnt:
		var m AntMode
		err := json.Unmarshal(data, &m)
		return m, err
	case ModeMaven:
		var m MavenMode
		err := json.Unmarshal(data, &m)
		return m, err
	default:
		return nil, fmt.Errorf("unsupported execution mode %q", header.ID)
	}
}
