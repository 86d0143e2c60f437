package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sourceplane/tmplstudio/internal/model"
)

// VersionViewer provides a human-readable tree of a template's versions
type VersionViewer struct {
	identifier string
	versions   []model.VersionSummary
}

// NewVersionViewer creates a viewer for identifier's versions
func NewVersionViewer(identifier string, versions []model.VersionSummary) *VersionViewer {
	return &VersionViewer{identifier: identifier, versions: versions}
}

// ViewTree returns the versions grouped by child type, newest first.
// current marks the version being edited.
func (vv *VersionViewer) ViewTree(current string) string {
	if len(vv.versions) == 0 {
		return fmt.Sprintf("No versions found for template: %s", vv.identifier)
	}

	byType := make(map[string][]model.VersionSummary)
	for _, v := range vv.versions {
		childType := v.ChildType
		if childType == "" {
			childType = "Unknown"
		}
		byType[childType] = append(byType[childType], v)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	latest := model.LastPublishedVersion(vv.versions)

	var sb strings.Builder
	sb.WriteString(vv.identifier + "\n")

	for i, childType := range types {
		isLastType := i == len(types)-1
		typePrefix := "├─ "
		connector := "│  "
		if isLastType {
			typePrefix = "└─ "
			connector = "   "
		}
		sb.WriteString(fmt.Sprintf("%s[%s]\n", typePrefix, childType))

		versions := byType[childType]
		sort.SliceStable(versions, func(a, b int) bool {
			return versions[a].CreatedAt > versions[b].CreatedAt
		})

		for j, v := range versions {
			versionPrefix := connector + "├─ "
			detail := connector + "│  "
			if j == len(versions)-1 {
				versionPrefix = connector + "└─ "
				detail = connector + "   "
			}

			line := versionPrefix + v.VersionLabel
			var tags []string
			if v.StableTemplate {
				tags = append(tags, "stable")
			}
			if v.VersionLabel == latest {
				tags = append(tags, "latest")
			}
			if len(tags) > 0 {
				line += fmt.Sprintf(" (%s)", strings.Join(tags, ", "))
			}
			if v.VersionLabel == current {
				line += " *"
			}
			sb.WriteString(line + "\n")

			if v.CreatedAt > 0 {
				sb.WriteString(fmt.Sprintf("%s  created: %s\n", detail, formatMillis(v.CreatedAt)))
			}
			if v.GitDetails != nil && v.GitDetails.RepoName != "" {
				sb.WriteString(fmt.Sprintf("%s  git: %s@%s %s\n", detail, v.GitDetails.RepoName, v.GitDetails.Branch, v.GitDetails.FilePath))
			}
		}
	}

	sb.WriteString("═══════════════════════════════════════════════════════════\n")
	sb.WriteString(fmt.Sprintf("Summary: %d versions, stable: %s, latest: %s\n",
		len(vv.versions), orNone(model.StableVersion(vv.versions)), orNone(latest)))

	return sb.String()
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
