// ABOUTME: Representation technique enum used to pick evidence selectors
// ABOUTME: Parses configured names and rejects unknown ones up front
package models

import (
	"fmt"
	"strings"
)

// Technique identifies one way of representing a cluster to the namer.
type Technique int

const (
	// Topical picks documents nearest the cluster centroid.
	Topical Technique = iota
	// Distinctive picks documents that separate a cluster from its neighbors.
	Distinctive
	// Contrastive picks keyphrases weighted against the rest of the layer.
	Contrastive
)

// AllTechniques is the default technique order.
var AllTechniques = []Technique{Topical, Distinctive, Contrastive}

var techniqueNames = map[Technique]string{
	Topical:     "topical",
	Distinctive: "distinctive",
	Contrastive: "contrastive",
}

// String returns the configuration name of the technique.
func (t Technique) String() string {
	if name, ok := techniqueNames[t]; ok {
		return name
	}
	return fmt.Sprintf("technique(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Technique) MarshalText() ([]byte, error) {
	if _, ok := techniqueNames[t]; !ok {
		return nil, fmt.Errorf("%w: unknown technique %d", ErrConfiguration, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Technique) UnmarshalText(text []byte) error {
	parsed, err := ParseTechnique(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTechnique maps a configuration name to a Technique.
func ParseTechnique(name string) (Technique, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for t, n := range techniqueNames {
		if n == normalized {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported representation technique %q", ErrConfiguration, name)
}

// ParseTechniques parses a comma separated technique list, dropping repeats.
func ParseTechniques(list string) ([]Technique, error) {
	var result []Technique
	seen := make(map[Technique]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTechnique(part)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			result = append(result, t)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no representation techniques configured", ErrConfiguration)
	}
	return result, nil
}

// ContainsTechnique reports whether t is in list.
func ContainsTechnique(list []Technique, t Technique) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}
