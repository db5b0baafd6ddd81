package database

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed detections.yaml
var detectionCatalogYAML []byte

// catalogEntry mirrors one rule in detections.yaml.
type catalogEntry struct {
	DetectionID            string   `yaml:"detection_id"`
	Name                   string   `yaml:"name"`
	Description            string   `yaml:"description"`
	RequiredSignals        []string `yaml:"required_signals"`
	DetectionLogic         string   `yaml:"detection_logic"`
	ExpectedFalsePositives string   `yaml:"expected_false_positives"`
	Severity               string   `yaml:"severity"`
	RecommendedResponse    string   `yaml:"recommended_response"`
	MitreTactic            string   `yaml:"mitre_tactic"`
	MitreTechnique         string   `yaml:"mitre_technique"`
	MitreTechniqueID       string   `yaml:"mitre_technique_id"`
}

// LoadDetectionCatalog parses the embedded detection rule catalog.
func LoadDetectionCatalog() ([]Detection, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(detectionCatalogYAML, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse detection catalog: %w", err)
	}

	detections := make([]Detection, 0, len(entries))
	for _, e := range entries {
		detections = append(detections, Detection{
			DetectionID:            e.DetectionID,
			Name:                   e.Name,
			Description:            e.Description,
			RequiredSignals:        StringList(e.RequiredSignals),
			DetectionLogic:         e.DetectionLogic,
			ExpectedFalsePositives: e.ExpectedFalsePositives,
			Severity:               SeverityLevel(NormalizeSeverity(e.Severity)),
			RecommendedResponse:    e.RecommendedResponse,
			MitreTactic:            e.MitreTactic,
			MitreTechnique:         e.MitreTechnique,
			MitreTechniqueID:       e.MitreTechniqueID,
		})
	}
	return detections, nil
}
