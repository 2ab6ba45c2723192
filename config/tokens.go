package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

// TokenManifest maps token symbols to addresses so CLI users can say "DAI"
// instead of pasting addresses.
type TokenManifest struct {
	Tokens map[string]string `yaml:"tokens"`
}

// LoadTokenManifest reads a YAML symbol-to-address manifest.
func LoadTokenManifest(path string) (map[string]common.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token manifest: %w", err)
	}

	var manifest TokenManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse token manifest: %w", err)
	}

	tokens := make(map[string]common.Address, len(manifest.Tokens))
	for symbol, addr := range manifest.Tokens {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("token %s has invalid address %q", symbol, addr)
		}
		tokens[symbol] = common.HexToAddress(addr)
	}
	return tokens, nil
}
