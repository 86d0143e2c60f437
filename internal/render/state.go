package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/studio"
	"gopkg.in/yaml.v3"
)

// Renderer serializes session state for consumers
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON renders state as JSON
func (r *Renderer) RenderJSON(state studio.State) ([]byte, error) {
	return json.MarshalIndent(state, "", "  ")
}

// RenderYAML renders state as YAML
func (r *Renderer) RenderYAML(state studio.State) ([]byte, error) {
	return yaml.Marshal(state)
}

// Render renders state in the named format (json or yaml)
func (r *Renderer) Render(state studio.State, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return r.RenderJSON(state)
	case "yaml", "yml":
		return r.RenderYAML(state)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteState writes state to file (JSON or YAML based on extension)
func (r *Renderer) WriteState(state studio.State, path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	format := "json"
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	data, err := r.Render(state, format)
	if err != nil {
		return fmt.Errorf("failed to render state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state to %s: %w", path, err)
	}

	return nil
}

// DebugDump outputs a short human-readable summary of the session
func (r *Renderer) DebugDump(state studio.State) string {
	var sb strings.Builder
	meta := state.TemplateMetadata

	fmt.Fprintf(&sb, "Template: %s (%s)\n", meta.Name, state.TemplateIdentifier)
	fmt.Fprintf(&sb, "  Type: %s\n", state.Template.Type())
	fmt.Fprintf(&sb, "  Version: %s (stable: %s, latest: %s)\n", meta.VersionLabel, state.StableVersion, state.LastPublishedVersion)
	if state.GitDetails.RepoName != "" {
		fmt.Fprintf(&sb, "  Git: %s@%s %s\n", state.GitDetails.RepoName, state.GitDetails.Branch, state.GitDetails.FilePath)
	}
	if state.StoreMetadata.StoreType != "" {
		fmt.Fprintf(&sb, "  Store: %s\n", state.StoreMetadata.StoreType)
	}
	if state.CacheResponseMetadata.CacheState != "" {
		fmt.Fprintf(&sb, "  Remote cache: %s\n", state.CacheResponseMetadata.CacheState)
	}
	fmt.Fprintf(&sb, "  Unsaved template changes: %v\n", state.IsUpdated)
	fmt.Fprintf(&sb, "  Unsaved metadata changes: %v\n", state.IsUpdatedMetadata)
	if state.IsBETemplateUpdated {
		sb.WriteString("  Remote copy changed since editing started\n")
	}
	if !state.EntityValidityDetails.Valid {
		sb.WriteString("  Invalid template:\n")
		for _, msg := range state.EntityValidityDetails.ErrorMessages {
			fmt.Fprintf(&sb, "    - %s\n", msg)
		}
	}
	if !state.RemoteFetchError.IsZero() {
		fmt.Fprintf(&sb, "  Remote error: %s %s\n", state.RemoteFetchError.Code, state.RemoteFetchError.Message)
	}
	if state.ErrorMessage != "" {
		fmt.Fprintf(&sb, "  Error: %s\n", state.ErrorMessage)
	}

	return sb.String()
}
