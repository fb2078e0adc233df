package searchcfg

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"messagesearch/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry resolves search tuning defaults and FTS configurations per
// language. Loaded once at startup; read-only afterwards.
type Registry struct {
	defaults    Defaults
	fts         map[string]string // primary language subtag -> regconfig
	fallbackFTS string
}

// NewRegistry loads the embedded search registry. When SEARCH_CONFIG_PATH is
// set, that file is loaded instead.
func NewRegistry() (*Registry, error) {
	var data []byte
	var err error

	if path := os.Getenv("SEARCH_CONFIG_PATH"); path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read search config %s: %w", path, err)
		}
	} else {
		data, err = configFiles.ReadFile("config/search.yaml")
		if err != nil {
			return nil, fmt.Errorf("read embedded search config: %w", err)
		}
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal search config: %w", err)
	}

	r := &Registry{
		defaults:    file.Defaults,
		fts:         make(map[string]string, len(file.Languages)),
		fallbackFTS: file.FallbackFTS,
	}
	for _, m := range file.Languages {
		r.fts[strings.ToLower(m.Code)] = m.FTS
	}

	if r.fallbackFTS == "" {
		r.fallbackFTS = "simple"
	}
	if r.defaults.TextWeight == 0 && r.defaults.VectorWeight == 0 {
		r.defaults.TextWeight = models.DefaultTextWeight
		r.defaults.VectorWeight = models.DefaultVectorWeight
	}
	if r.defaults.LexicalPool <= 0 {
		r.defaults.LexicalPool = models.DefaultLexicalPool
	}
	if r.defaults.VectorPool <= 0 {
		r.defaults.VectorPool = models.DefaultVectorPool
	}

	return r, nil
}

// DefaultWeights returns the configured hybrid score weights.
func (r *Registry) DefaultWeights() models.HybridWeights {
	return models.HybridWeights{Text: r.defaults.TextWeight, Vector: r.defaults.VectorWeight}
}

// LexicalPool returns the configured lexical candidate pool bound.
func (r *Registry) LexicalPool() int { return r.defaults.LexicalPool }

// VectorPool returns the configured top-K vector candidate pool.
func (r *Registry) VectorPool() int { return r.defaults.VectorPool }

// FTSConfig maps a BCP 47 language code (e.g. "en-US") to a Postgres text
// search configuration. Unknown or empty codes map to the fallback
// configuration so queries still match on exact tokens.
func (r *Registry) FTSConfig(languageCode string) string {
	if languageCode == "" {
		return r.fallbackFTS
	}
	tag, err := language.Parse(languageCode)
	if err != nil {
		return r.fallbackFTS
	}
	base, _ := tag.Base()
	if fts, ok := r.fts[strings.ToLower(base.String())]; ok {
		return fts
	}
	return r.fallbackFTS
}

// ValidLanguageCode reports whether the code parses as BCP 47.
func ValidLanguageCode(code string) bool {
	_, err := language.Parse(code)
	return err == nil
}
