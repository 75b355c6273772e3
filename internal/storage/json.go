package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ngorch/internal/domain"
)

// LoadRequest reads a build command request envelope from a JSON file.
func LoadRequest(path string) (*domain.BuildCommandRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	var req domain.BuildCommandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

// LoadCleanup reads a cleanup envelope from a JSON file.
func LoadCleanup(path string) (*domain.CleanupRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cleanup file: %w", err)
	}
	var req domain.CleanupRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse cleanup request: %w", err)
	}
	if req.CommandRequest == nil {
		return nil, fmt.Errorf("parse cleanup request: missing command_request")
	}
	return &req, nil
}

// SaveJSON writes v as indented JSON, creating the parent directory.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
