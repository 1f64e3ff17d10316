package config

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/v2"
)

// tomlParser adapts BurntSushi/toml to koanf's Parser interface.
type tomlParser struct{}

// TOML returns a koanf parser for TOML documents.
func TOML() koanf.Parser { return tomlParser{} }

func (tomlParser) Unmarshal(b []byte) (map[string]any, error) {
	m := map[string]any{}
	if _, err := toml.Decode(string(b), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (tomlParser) Marshal(m map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
