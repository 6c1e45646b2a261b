package frameworks

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
)

type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

var jsFrameworkNames = []string{"react", "next", "express", "vue", "@angular/core", "@nestjs/core"}

// detectJavaScript parses package.json at root and detects known
// JavaScript/TypeScript frameworks among its dependencies. A malformed
// manifest is logged and treated as no detections, never as a failure.
func detectJavaScript(root string, log *logrus.Entry) []Detection {
	data, err := os.ReadFile(manifestPath(root, "package.json"))
	if err != nil {
		return nil
	}

	var manifest packageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.WithError(err).Debug("package.json could not be parsed, skipping")
		return nil
	}

	var detections []Detection
	for _, name := range jsFrameworkNames {
		version, ok := manifest.Dependencies[name]
		if !ok {
			version, ok = manifest.DevDependencies[name]
		}
		if !ok {
			continue
		}
		if version == "" {
			version = "detected"
		}
		detections = append(detections, Detection{
			Name:       name,
			Version:    version,
			Confidence: 0.99,
			Evidence:   []string{"package.json dependency"},
		})
	}
	return detections
}
