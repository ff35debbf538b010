// Package harborcfg loads the TOML project file a harborctl invocation
// reads its grammar/output paths and build options from, decoding it with
// toml.Decode onto a Config struct.
package harborcfg

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level shape of a harborctl project file (conventionally
// "harbor.toml").
type Config struct {
	Lexer  LexerConfig  `toml:"lexer"`
	Parser ParserConfig `toml:"parser"`
	Output OutputConfig `toml:"output"`
}

// LexerConfig names the lexical grammar source and which lexical goals to
// emit start states for.
type LexerConfig struct {
	GrammarFile string   `toml:"grammar_file"`
	Goals       []string `toml:"goals"`
}

// ParserConfig names the syntactic grammar source and whether shift/reduce
// conflicts should be resolved by shifting rather than reported.
type ParserConfig struct {
	GrammarFile       string `toml:"grammar_file"`
	PreferShift       bool   `toml:"prefer_shift"`
	StartSymbol       string `toml:"start_symbol"`
}

// OutputConfig controls where generated tables land and in what format.
type OutputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"` // "rezi" (binary) or "text" (rosed dump)
}

// Default returns the base configuration Load decodes a project file onto,
// so fields the file leaves unset keep these values. A missing file is not
// replaced by Default: Load returns an error for it.
func Default() Config {
	return Config{
		Lexer:  LexerConfig{GrammarFile: "lexicon.toml", Goals: []string{"InputElementDiv"}},
		Parser: ParserConfig{GrammarFile: "grammar.toml", PreferShift: false, StartSymbol: "Program"},
		Output: OutputConfig{Dir: "build", Format: "rezi"},
	}
}

// Load reads and parses a project file from path.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %q: %w", path, err)
	}

	return cfg, nil
}
