package spec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/restspec/internal/parser"
	"github.com/studiowebux/restspec/internal/types"
)

// Document is the ordered list of scenarios read from one source
type Document struct {
	Source    string
	Scenarios []Scenario
}

// Name returns the source file name up to its first dot
func (d *Document) Name() string {
	base := filepath.Base(d.Source)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// Len returns the number of scenarios
func (d *Document) Len() int {
	return len(d.Scenarios)
}

// Find returns the scenario whose id matches id
func (d *Document) Find(id string) (Scenario, bool) {
	for _, s := range d.Scenarios {
		if s.ID() == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// rawScenario mirrors one YAML sub-document
type rawScenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Request     string `yaml:"request"`
	Response    string `yaml:"response"`
}

// Load reads a spec document from a YAML file
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.Wrap(types.KindScenarioParsing, "spec.Load", err, "failed to open "+path)
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse decodes every YAML sub-document of r into a scenario. Any failure
// discards the whole document.
func Parse(source string, r io.Reader) (*Document, error) {
	const op = "spec.Parse"

	doc := &Document{Source: source}
	dec := yaml.NewDecoder(r)

	for index := 0; ; index++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, types.Wrap(types.KindScenarioParsing, op, err,
				fmt.Sprintf("%s: failed to decode document %d", source, index))
		}
		if isEmptyNode(&node) {
			continue
		}

		scenario, err := decodeScenario(&node)
		if err != nil {
			return nil, types.Wrap(types.KindScenarioParsing, op, err,
				fmt.Sprintf("%s: document %d", source, index))
		}
		doc.Scenarios = append(doc.Scenarios, scenario)
	}

	return doc, nil
}

func decodeScenario(node *yaml.Node) (Scenario, error) {
	var generic map[string]any
	if err := node.Decode(&generic); err != nil {
		return Scenario{}, fmt.Errorf("scenario must be a mapping: %w", err)
	}
	if err := validateStructure(generic); err != nil {
		return Scenario{}, err
	}

	var raw rawScenario
	if err := node.Decode(&raw); err != nil {
		return Scenario{}, err
	}

	req, err := parser.ParseRequest(raw.Request)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q request: %w", raw.Name, err)
	}
	resp, err := parser.ParseResponse(raw.Response)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q response: %w", raw.Name, err)
	}

	return Scenario{
		Name:        raw.Name,
		Description: raw.Description,
		Request:     req,
		Response:    resp,
	}, nil
}

func isEmptyNode(node *yaml.Node) bool {
	if node.Kind == 0 {
		return true
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		inner := node.Content[0]
		return inner.Kind == yaml.ScalarNode && inner.Tag == "!!null"
	}
	return false
}

// LoadDir loads every .yaml and .yml file directly inside dir, sorted by name.
// The first failing file aborts the load.
func LoadDir(dir string) ([]*Document, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		doc, err := Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// List returns the spec files directly inside dir, sorted by name
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, types.Wrap(types.KindConfiguration, "spec.List", err, "failed to read spec directory "+dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSpecFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsSpecFile reports whether name has a YAML extension
func IsSpecFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadPath loads a single file, or every spec file of a directory
func LoadPath(path string) ([]*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, types.Wrap(types.KindConfiguration, "spec.LoadPath", err, "spec source not found")
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return []*Document{doc}, nil
}
