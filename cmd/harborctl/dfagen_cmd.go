package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/harborlang/harbor/internal/dfagen"
	"github.com/harborlang/harbor/internal/harborcfg"
	"github.com/harborlang/harbor/internal/unicodeset"
)

// lexiconFile is the on-disk TOML shape a lexical grammar is authored in;
// dfagen.Grammar's Term is an interface and can't be decoded directly, so
// this mirrors it with a tagged-union-by-field-presence shape instead.
type lexiconFile struct {
	Rules map[string]struct {
		Productions [][]termSpec `toml:"productions"`
	} `toml:"rule"`
	Tokens []struct {
		Name     string `toml:"name"`
		Rule     string `toml:"rule"`
		Priority int    `toml:"priority"`
	} `toml:"token"`
}

// termSpec is one production term, named by which of its fields is set.
type termSpec struct {
	Empty      bool     `toml:"empty"`
	Ranges     [][2]int `toml:"ranges"`      // SetTerm, as inclusive [lo, hi] code point pairs
	Exclude    string   `toml:"exclude"`      // ExcludeTerm.NonTerminal
	ExcludeLo  int      `toml:"exclude_from"` // ExcludeTerm.Subtract lower bound
	ExcludeHi  int      `toml:"exclude_to"`
	NonTerm    string   `toml:"nonterminal"`
	Lookahead  [][2]int `toml:"lookahead"`
	NegateLook bool     `toml:"lookahead_negate"`
}

func (t termSpec) toTerm() (dfagen.Term, error) {
	switch {
	case t.Empty:
		return dfagen.EmptyTerm{}, nil
	case len(t.Ranges) > 0:
		return dfagen.SetTerm{Set: rangesToSet(t.Ranges)}, nil
	case t.Exclude != "":
		return dfagen.ExcludeTerm{NonTerminal: t.Exclude, Subtract: unicodeset.Range(rune(t.ExcludeLo), rune(t.ExcludeHi))}, nil
	case len(t.Lookahead) > 0:
		return dfagen.LookaheadTerm{Set: rangesToSet(t.Lookahead), Negate: t.NegateLook}, nil
	case t.NonTerm != "":
		return dfagen.NonTerminalTerm{Name: t.NonTerm}, nil
	default:
		return nil, fmt.Errorf("term has no recognizable field set")
	}
}

func rangesToSet(ranges [][2]int) unicodeset.Set {
	var s unicodeset.Set
	for _, r := range ranges {
		s = unicodeset.Merge(s, unicodeset.Range(rune(r[0]), rune(r[1])))
	}
	return s
}

func loadLexicon(path string) (dfagen.Grammar, error) {
	var lf lexiconFile
	if _, err := toml.DecodeFile(path, &lf); err != nil {
		return dfagen.Grammar{}, fmt.Errorf("decoding lexicon %q: %w", path, err)
	}

	g := dfagen.Grammar{Rules: map[string]dfagen.Rule{}}
	for name, raw := range lf.Rules {
		var prods []dfagen.Production
		for _, p := range raw.Productions {
			var prod dfagen.Production
			for _, ts := range p {
				term, err := ts.toTerm()
				if err != nil {
					return dfagen.Grammar{}, fmt.Errorf("rule %q: %w", name, err)
				}
				prod = append(prod, term)
			}
			prods = append(prods, prod)
		}
		g.Rules[name] = dfagen.Rule{Name: name, Productions: prods}
	}

	for _, t := range lf.Tokens {
		g.Tokens = append(g.Tokens, dfagen.Token{Name: t.Name, Rule: t.Rule, Priority: t.Priority})
	}

	return g, nil
}

func runDfagen(args []string) error {
	fs := pflag.NewFlagSet("dfagen", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "harbor.toml", "project config file")
	outDir := fs.StringP("out", "o", "", "override output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := harborcfg.Load(*configPath)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	pterm.Info.Printfln("compiling lexical grammar %s", cfg.Lexer.GrammarFile)
	grammar, err := loadLexicon(cfg.Lexer.GrammarFile)
	if err != nil {
		return err
	}

	builder := dfagen.NewBuilder(grammar)
	nfa, tokenStarts, err := builder.Build()
	if err != nil {
		return fmt.Errorf("building NFA: %w", err)
	}

	goalFragments := map[string][]string{}
	for _, goal := range cfg.Lexer.Goals {
		var names []string
		for name := range tokenStarts {
			names = append(names, name)
		}
		goalFragments[goal] = names
	}

	dfa, err := dfagen.Compile(nfa, tokenStarts, goalFragments)
	if err != nil {
		return fmt.Errorf("compiling DFA: %w", err)
	}

	pterm.Success.Printfln("compiled %d DFA states across %d goals", len(dfa.States), len(dfa.Goals))

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}

	if cfg.Output.Format == "rezi" {
		outPath := filepath.Join(cfg.Output.Dir, "lexicon.rezi")
		return os.WriteFile(outPath, dfa.Snapshot().EncodeBinary(), 0o644)
	}

	outPath := filepath.Join(cfg.Output.Dir, "lexicon.txt")
	return os.WriteFile(outPath, []byte(dfa.Dump()), 0o644)
}
