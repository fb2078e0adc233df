package searchcfg

// Defaults holds the compiled-in search tuning knobs.
type Defaults struct {
	TextWeight   float64 `yaml:"text_weight"`
	VectorWeight float64 `yaml:"vector_weight"`
	LexicalPool  int     `yaml:"lexical_pool"`
	VectorPool   int     `yaml:"vector_pool"`
}

// LanguageMapping binds a BCP 47 primary language subtag to a Postgres text
// search configuration.
type LanguageMapping struct {
	Code string `yaml:"code"`
	FTS  string `yaml:"fts"`
}

// File is the on-disk/embedded shape of the search registry.
type File struct {
	Defaults    Defaults          `yaml:"defaults"`
	Languages   []LanguageMapping `yaml:"languages"`
	FallbackFTS string            `yaml:"fallback_fts"`
}
