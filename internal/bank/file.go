package bank

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-session-engine/internal/domain"
)

// DefaultBankID and DailyBankID name the two banks a deployment serves.
const (
	DefaultBankID = "main"
	DailyBankID   = "daily"
)

//go:embed default_bank.yaml
var defaultBankYAML []byte

// File is the on-disk YAML layout: one list of questions per bank id.
type File struct {
	Banks map[string][]domain.Question `yaml:"banks"`
}

// Parse decodes and validates a YAML bank file.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("decode bank: %w", err)
	}
	for id, questions := range f.Banks {
		if err := Validate(questions); err != nil {
			return File{}, fmt.Errorf("bank %s: %w", id, err)
		}
	}
	return f, nil
}

// LoadFile reads a YAML bank file from path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(data)
}

// Default returns the bank compiled into the binary.
func Default() File {
	f, err := Parse(defaultBankYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded bank is invalid: %v", err))
	}
	return f
}
