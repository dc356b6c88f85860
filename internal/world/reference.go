package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// referenceFile is the on-disk layout of a seat reference table.
type referenceFile struct {
	Seats []struct {
		Seat        `yaml:",inline"`
		Electorate  int                   `yaml:"electorate"`
		Composition map[Ethnicity]float64 `yaml:"composition"`
	} `yaml:"seats"`
}

// LoadReference reads a YAML seat table. Seats without an electorate or
// composition get no demographic record and degrade to the neutral baseline.
func LoadReference(path string) (*Geography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference: %w", err)
	}
	return ParseReference(data)
}

// ParseReference decodes a YAML seat table.
func ParseReference(data []byte) (*Geography, error) {
	var ref referenceFile
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("parse reference: %w", err)
	}

	seats := make([]Seat, 0, len(ref.Seats))
	demos := make(map[string]*Demographics)
	seen := make(map[string]bool)
	for _, s := range ref.Seats {
		if s.Code == "" {
			return nil, fmt.Errorf("seat %q has no code", s.Name)
		}
		if seen[s.Code] {
			return nil, fmt.Errorf("duplicate seat code %q", s.Code)
		}
		seen[s.Code] = true
		seats = append(seats, s.Seat)
		if s.Electorate > 0 || len(s.Composition) > 0 {
			demos[s.Code] = &Demographics{
				SeatCode:        s.Code,
				TotalElectorate: s.Electorate,
				Composition:     s.Composition,
			}
		}
	}
	return NewGeography(seats, demos), nil
}
