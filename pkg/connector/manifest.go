package connector

import (
	"fmt"
	"os"
	"path"

	yaml "gopkg.in/yaml.v2"
)

// Manifest declares the local dependencies of the connectors in a repository
type Manifest struct {
	Connectors []*Connector `yaml:"connectors"`
}

// LoadManifest reads a YAML manifest from disk
func LoadManifest(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(data)
}

// ParseManifest decodes a YAML manifest. Connectors without an explicit code
// directory get the conventional one.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i, c := range m.Connectors {
		if c == nil || c.TechnicalName == "" {
			return nil, fmt.Errorf("manifest entry %d has no name", i)
		}
		if c.CodeDirectory == "" {
			c.CodeDirectory = path.Join(ConnectorsRoot, c.TechnicalName)
		}
	}

	return &m, nil
}

// Get returns a copy of the named connector
func (m *Manifest) Get(technicalName string) (*Connector, error) {
	for _, c := range m.Connectors {
		if c.TechnicalName == technicalName {
			cp := *c
			cp.LocalDependencies = append([]string(nil), c.LocalDependencies...)
			cp.TestDependencies = append([]string(nil), c.TestDependencies...)
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownConnector, technicalName)
}

// Resolve looks the connector up in m, falling back to New when m is nil.
func Resolve(m *Manifest, technicalName string) (*Connector, error) {
	if m == nil {
		return New(technicalName), nil
	}
	return m.Get(technicalName)
}
