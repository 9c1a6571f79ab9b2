package provider

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type fileFormat struct {
	Providers []Provider `yaml:"providers"`
}

// LoadFile reads a provider table from a YAML file of the form
//
//	providers:
//	  - name: openai
//	    display_name: OpenAI
//	    rss_feed: https://status.openai.com/history.rss
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads a provider table in the LoadFile format.
func Load(r io.Reader) (*Registry, error) {
	var doc fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse providers yaml: %w", err)
	}
	return NewRegistry(doc.Providers)
}

// LoadOrDefault loads path when set and returns the built-in table otherwise.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
