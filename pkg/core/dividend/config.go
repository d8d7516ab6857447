package dividend

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// =============================================================================
// SOURCE CONFIG FILE - Hand-edited overrides for the built-in sources
// =============================================================================

// sourceFile is the on-disk shape of a source-override file.
type sourceFile struct {
	Sources []SourceConfig `json:"sources"`
}

// LoadSourceConfigs reads source configurations from an HJSON file, so the
// candidate header lists and pagination strategy of a site can be adjusted
// without a rebuild when its markup shifts.
func LoadSourceConfigs(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source config: %w", err)
	}

	var file sourceFile
	if err := hjson.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source config %s: %w", path, err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("source config %s lists no sources", path)
	}

	for i, cfg := range file.Sources {
		if cfg.Name == "" || cfg.URLTemplate == "" {
			return nil, fmt.Errorf("source config %s: entry %d missing name or url_template", path, i)
		}
		if len(cfg.Headers.ExDate) == 0 || len(cfg.Headers.Amount) == 0 {
			return nil, fmt.Errorf("source config %s: source %s needs ex_date and amount header candidates", path, cfg.Name)
		}
	}
	return file.Sources, nil
}
