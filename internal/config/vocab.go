package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VocabTerm is one domain term the extraction prompts should recognize.
type VocabTerm struct {
	Term    string `yaml:"term"`
	Meaning string `yaml:"meaning"`
}

// Vocabulary is the domain glossary injected into extraction prompts so
// the model resolves personal shorthand ("standup", project codenames)
// instead of extracting it literally.
type Vocabulary struct {
	Terms []VocabTerm `yaml:"terms"`
}

// LoadVocabulary reads the vocabulary YAML file. An empty path returns an
// empty vocabulary, not an error; prompt assembly omits the section.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return &Vocabulary{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("parse vocabulary file: %w", err)
	}
	return &vocab, nil
}
