package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/omnipkg/omni/internal/errs"
)

// yamlDoc is Config's on-disk shape, kept separate from Config itself
// because BackendOptions' dynamic `<backend>_options` keys don't round
// trip through a single mapstructure tag.
type yamlDoc struct {
	General  General   `yaml:"general"`
	Boxes    yamlBoxes `yaml:"boxes"`
	Security Security  `yaml:"security"`
}

type yamlBoxes struct {
	PreferredOrder []string `yaml:"preferred_order"`
	DisabledBoxes  []string `yaml:"disabled_boxes"`
}

// Save writes cfg to path as YAML. The CLI has no `config edit` command.
func Save(path string, cfg *Config) error {
	doc := yamlDoc{
		General: cfg.General,
		Boxes: yamlBoxes{
			PreferredOrder: cfg.Boxes.PreferredOrder,
			DisabledBoxes:  cfg.Boxes.DisabledBoxes,
		},
		Security: cfg.Security,
	}

	node, err := marshalWithBackendOptions(doc, cfg.Boxes.BackendOptions)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Configuration, err, "failed to create config directory")
	}
	if err := os.WriteFile(path, node, 0o644); err != nil {
		return errs.Wrap(errs.Configuration, err, "failed to write config file")
	}
	return nil
}

// marshalWithBackendOptions YAML-marshals doc, then splices each
// `<backend>_options` entry into the `boxes` mapping — yaml.v3 has no
// struct tag for "merge this map's keys into my siblings", so the splice
// is done on the parsed node tree rather than the Go struct.
func marshalWithBackendOptions(doc yamlDoc, backendOptions map[string][]string) ([]byte, error) {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "failed to marshal config")
	}
	if len(backendOptions) == 0 {
		return b, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "failed to re-parse config for backend options")
	}
	boxesNode := findMappingValue(&root, "boxes")
	if boxesNode != nil {
		for backend, opts := range backendOptions {
			appendStringListKey(boxesNode, backend+"_options", opts)
		}
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "failed to marshal config with backend options")
	}
	return out, nil
}

func findMappingValue(root *yaml.Node, key string) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == key {
			return doc.Content[i+1]
		}
	}
	return nil
}

func appendStringListKey(mapping *yaml.Node, key string, values []string) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	listNode := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		listNode.Content = append(listNode.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v})
	}
	mapping.Content = append(mapping.Content, keyNode, listNode)
}

// Reset overwrites path with the default configuration, backing the
// `config reset` CLI operation.
func Reset(path string) (*Config, error) {
	v := defaults()
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.Configuration, err, "failed to build default config")
	}
	coerce(&cfg)
	if err := Save(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
