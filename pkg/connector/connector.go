package connector

import (
	"errors"
	"path"
)

// ConnectorsRoot is where connector code lives, relative to the repository root
const ConnectorsRoot = "airbyte-integrations/connectors"

// ErrUnknownConnector indicates the connector is not declared in the manifest
var ErrUnknownConnector = errors.New("unknown connector")

// Connector identifies one buildable unit of the repository
type Connector struct {
	TechnicalName     string   `yaml:"name"`
	CodeDirectory     string   `yaml:"code_directory,omitempty"`
	LocalDependencies []string `yaml:"dependencies,omitempty"`
	TestDependencies  []string `yaml:"test_dependencies,omitempty"`
}

// New returns a connector with no local dependencies, living at the
// conventional location.
func New(technicalName string) *Connector {
	return &Connector{
		TechnicalName: technicalName,
		CodeDirectory: path.Join(ConnectorsRoot, technicalName),
	}
}

// LocalDependencyPaths returns the repository directories needed to build
// the connector: its own code directory first, then its local dependencies
// and, when withTest is set, its test-only dependencies. Duplicates are
// dropped, first occurrence wins.
func (c *Connector) LocalDependencyPaths(withTest bool) []string {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		p = path.Clean(p)
		if p == "." || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	add(c.CodeDirectory)
	for _, dep := range c.LocalDependencies {
		add(dep)
	}
	if withTest {
		for _, dep := range c.TestDependencies {
			add(dep)
		}
	}

	return paths
}

// SecretsPath is where the connector expects its secret files
func (c *Connector) SecretsPath() string {
	return path.Join(c.CodeDirectory, "secrets")
}
