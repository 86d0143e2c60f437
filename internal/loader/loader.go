package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sourceplane/tmplstudio/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	// TemplateFileName is the per-version template body file
	TemplateFileName = "template.yaml"
	// MetadataFileName is the optional per-template metadata file
	MetadataFileName = "metadata.yaml"
)

// TemplateFile is the on-disk metadata.yaml of a template directory
type TemplateFile struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	Tags          map[string]string `yaml:"tags"`
	Icon          string            `yaml:"icon"`
	StableVersion string            `yaml:"stableVersion"`
	ChildType     string            `yaml:"childType"`
}

// VersionFile is one version directory holding a template.yaml
type VersionFile struct {
	Label   string
	Path    string
	YAML    []byte
	ModTime int64
}

// TemplateDir holds every version found for one template identifier
type TemplateDir struct {
	Identifier string
	Path       string
	Metadata   TemplateFile
	Versions   []*VersionFile            // Sorted by label
	VersionMap map[string]*VersionFile // Quick lookup by label
}

// LoadTemplateFile reads and parses a single template YAML file
func LoadTemplateFile(path string) (*model.Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var doc model.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, data, fmt.Errorf("failed to parse template YAML: %w", err)
	}

	return &doc, data, nil
}

// LoadTemplateDir loads a template directory laid out as:
//
//	<dir>/metadata.yaml           optional
//	<dir>/<versionLabel>/template.yaml
//
// Only immediate subdirectories are scanned for versions.
func LoadTemplateDir(dir string) (*TemplateDir, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access template directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template path is not a directory: %s", dir)
	}

	td := &TemplateDir{
		Identifier: filepath.Base(dir),
		Path:       dir,
		VersionMap: make(map[string]*VersionFile),
	}

	// Load optional metadata
	metaPath := filepath.Join(dir, MetadataFileName)
	if data, err := os.ReadFile(metaPath); err == nil {
		if err := yaml.Unmarshal(data, &td.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", metaPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", metaPath, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		label := entry.Name()
		templatePath := filepath.Join(dir, label, TemplateFileName)
		stat, err := os.Stat(templatePath)
		if err != nil {
			continue
		}

		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template version %s: %w", label, err)
		}

		version := &VersionFile{
			Label:   label,
			Path:    templatePath,
			YAML:    data,
			ModTime: stat.ModTime().UnixMilli(),
		}
		td.Versions = append(td.Versions, version)
		td.VersionMap[label] = version
	}

	if len(td.Versions) == 0 {
		return nil, fmt.Errorf("no %s files found in template directory: %s", TemplateFileName, dir)
	}

	sort.Slice(td.Versions, func(i, j int) bool {
		return td.Versions[i].Label < td.Versions[j].Label
	})

	if td.Metadata.StableVersion != "" {
		if _, ok := td.VersionMap[td.Metadata.StableVersion]; !ok {
			return nil, fmt.Errorf("stable version %s of template %s has no %s", td.Metadata.StableVersion, td.Identifier, TemplateFileName)
		}
	}

	return td, nil
}

// StableVersion returns the declared stable label, defaulting to the highest label
func (td *TemplateDir) StableVersion() string {
	if td.Metadata.StableVersion != "" {
		return td.Metadata.StableVersion
	}
	return td.Versions[len(td.Versions)-1].Label
}

// WriteTemplateVersion writes a version's template.yaml, creating directories as needed
func WriteTemplateVersion(dir, versionLabel string, doc model.Document) (string, error) {
	versionDir := filepath.Join(dir, versionLabel)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template: %w", err)
	}

	path := filepath.Join(versionDir, TemplateFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write template to %s: %w", path, err)
	}
	return path, nil
}
