package frameworks

import (
	"bufio"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/repoanalysis/engine/pkg/utils"
)

var pyFrameworkNames = []string{"django", "flask", "fastapi", "pytest"}

// detectPython parses requirements.txt at root line by line. Lines are
// matched by package name prefix (PEP 508 version specifiers and extras
// are stripped); unparseable lines are skipped rather than failing the
// whole detection.
func detectPython(root string, log *logrus.Entry) []Detection {
	f, err := os.Open(manifestPath(root, "requirements.txt"))
	if err != nil {
		return nil
	}
	defer f.Close()

	found := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := utils.TrimWhitespace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, version := parseRequirementLine(line)
		if name == "" {
			continue
		}
		found[strings.ToLower(name)] = version
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).Debug("requirements.txt could not be fully read, skipping remainder")
	}

	var detections []Detection
	for _, name := range pyFrameworkNames {
		version, ok := found[name]
		if !ok {
			continue
		}
		if version == "" {
			version = "detected"
		}
		detections = append(detections, Detection{
			Name:       name,
			Version:    version,
			Confidence: 0.95,
			Evidence:   []string{"requirements.txt dependency"},
		})
	}
	return detections
}

// parseRequirementLine splits a requirements.txt entry like
// "django==4.2.1" or "flask>=2.0" into (name, version).
func parseRequirementLine(line string) (string, string) {
	for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<"} {
		if idx := strings.Index(line, sep); idx > 0 {
			name := strings.SplitN(line[:idx], "[", 2)[0]
			return strings.TrimSpace(name), strings.TrimSpace(line[idx+len(sep):])
		}
	}
	name := strings.SplitN(line, "[", 2)[0]
	return strings.TrimSpace(name), ""
}
