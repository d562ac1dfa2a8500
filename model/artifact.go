package model

import (
	"fmt"
	"path"
	"strings"
)

// ArtifactRecord is one manifest entry. jarFilename is the only key used to
// deduplicate entries within a manifest.
type ArtifactRecord struct {
	GroupID        string `json:"groupId"`
	ArtifactID     string `json:"artifactId"`
	Version        string `json:"version"`
	UploadFilename string `json:"uploadFilename"`
	JarFilename    string `json:"jarFilename"`
	Root           string `json:"root"`
}

// Coordinates returns the registry coordinates of the record
func (r ArtifactRecord) Coordinates() Coordinates {
	return Coordinates{
		GroupPath:  r.GroupID,
		ArtifactID: r.ArtifactID,
		Version:    r.Version,
	}
}

// Coordinates addresses a single artifact in a Maven layout
type Coordinates struct {
	GroupPath  string // slash separated, e.g. com/ilts/libs
	ArtifactID string
	Version    string
}

// FileName is the name the registry stores the artifact under
func (c Coordinates) FileName() string {
	return fmt.Sprintf("%s-%s.jar", c.ArtifactID, c.Version)
}

// MavenPath returns {group}/{artifact}/{version}/{artifact}-{version}.jar
func (c Coordinates) MavenPath() string {
	return path.Join(c.GroupPath, c.ArtifactID, c.Version, c.FileName())
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%s:%s:%s", strings.ReplaceAll(c.GroupPath, "/", "."), c.ArtifactID, c.Version)
}

// GroupPath converts a dotted Maven group id into its slash separated form
func GroupPath(groupID string) string {
	return strings.ReplaceAll(groupID, ".", "/")
}
