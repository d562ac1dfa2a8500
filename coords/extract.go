// Package coords derives Maven coordinates from artifact file names.
//
// A file named <name>-<version><ext> yields (name, version), where version
// is made of letters, digits and dots. Any other file with the extension
// yields (name, DefaultVersion).
//
// The name group is greedy, so when several hyphen separated segments could
// be the version the longest name wins and only the last segment becomes the
// version: "commons-io-2.11.0.jar" is (commons-io, 2.11.0) and
// "foo-bar.jar" is (foo, bar).
package coords

import (
	"regexp"
	"strings"
	"sync"

	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
)

const DefaultVersion = "1.0.0"

var (
	patternsMu sync.Mutex
	patterns   = map[string]*regexp.Regexp{}
)

func versionPattern(ext string) *regexp.Regexp {
	patternsMu.Lock()
	defer patternsMu.Unlock()

	re, ok := patterns[ext]
	if !ok {
		re = regexp.MustCompile(`^(.+)-([0-9A-Za-z.]+)` + regexp.QuoteMeta(ext) + `$`)
		patterns[ext] = re
	}
	return re
}

// Parse splits filename into artifact id and version. ok is false when the
// file does not carry the extension or has nothing in front of it.
func Parse(filename, ext string) (artifactID, version string, ok bool) {
	if !strings.HasSuffix(filename, ext) {
		return "", "", false
	}

	if m := versionPattern(ext).FindStringSubmatch(filename); m != nil {
		return m[1], m[2], true
	}

	name := strings.TrimSuffix(filename, ext)
	if name == "" {
		return "", "", false
	}
	return name, DefaultVersion, true
}

// NewRecord builds the manifest record for filename. groupID is the dotted
// Maven group; the record stores its slash separated form.
func NewRecord(filename, ext, groupID, root string) (model.ArtifactRecord, bool) {
	artifactID, version, ok := Parse(filename, ext)
	if !ok {
		return model.ArtifactRecord{}, false
	}

	return model.ArtifactRecord{
		GroupID:        model.GroupPath(groupID),
		ArtifactID:     artifactID,
		Version:        version,
		UploadFilename: artifactID + "-" + version,
		JarFilename:    filename,
		Root:           root,
	}, true
}
