package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/harborlang/harbor/internal/harborcfg"
	"github.com/harborlang/harbor/internal/lalrgen"
	"github.com/harborlang/harbor/internal/lalrgen/grammar"
)

// syntaxFile is the on-disk TOML shape a context-free grammar is authored
// in: one table per non-terminal, each with its list of alternatives and an
// explicit terminal declaration list.
type syntaxFile struct {
	Start     string `toml:"start"`
	Terminals []struct {
		ID    string `toml:"id"`
		Human string `toml:"human"`
	} `toml:"terminal"`
	Rules map[string]struct {
		Alternatives [][]string `toml:"alternatives"`
	} `toml:"rule"`
}

func loadSyntax(path string) (grammar.Grammar, error) {
	var sf syntaxFile
	if _, err := toml.DecodeFile(path, &sf); err != nil {
		return grammar.Grammar{}, fmt.Errorf("decoding grammar %q: %w", path, err)
	}

	var g grammar.Grammar
	for _, t := range sf.Terminals {
		g.AddTerm(t.ID, grammar.MakeNamedClass(t.ID, t.Human))
	}
	for nonTerminal, raw := range sf.Rules {
		for _, alt := range raw.Alternatives {
			g.AddRule(nonTerminal, grammar.Production(alt))
		}
	}
	g.SetStartSymbol(sf.Start)

	return g, nil
}

func runLalrgen(args []string) error {
	fs := pflag.NewFlagSet("lalrgen", pflag.ContinueOnError)
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

	pterm.Info.Printfln("compiling syntax grammar %s", cfg.Parser.GrammarFile)
	g, err := loadSyntax(cfg.Parser.GrammarFile)
	if err != nil {
		return err
	}

	if err := g.Validate(); err != nil {
		return fmt.Errorf("grammar %q failed validation: %w", cfg.Parser.GrammarFile, err)
	}

	table, conflicts := lalrgen.Build(g, cfg.Parser.PreferShift)
	for _, c := range conflicts {
		pterm.Warning.Printfln("%v", c)
	}
	if len(conflicts) > 0 && !cfg.Parser.PreferShift {
		return fmt.Errorf("%d unresolved conflict(s); set prefer_shift to resolve shift/reduce automatically", len(conflicts))
	}

	pterm.Success.Printfln("built LALR(1) table with %d states", len(table.States))

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}

	if cfg.Output.Format == "rezi" {
		outPath := filepath.Join(cfg.Output.Dir, "syntax.rezi")
		return os.WriteFile(outPath, table.Snapshot().EncodeBinary(), 0o644)
	}

	outPath := filepath.Join(cfg.Output.Dir, "syntax.txt")
	return os.WriteFile(outPath, []byte(table.Dump()), 0o644)
}
