package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/harborlang/harbor/internal/dfagen"
	"github.com/harborlang/harbor/internal/harborcfg"
	"github.com/harborlang/harbor/internal/harborerrors"
	"github.com/harborlang/harbor/internal/jsparser"
	"github.com/harborlang/harbor/internal/lalrgen"
	"github.com/harborlang/harbor/internal/lalrgen/grammar"
	"github.com/harborlang/harbor/internal/trace"
)

// traceHandler is a SyntaxHandler that just narrates every event through
// pterm, for interactively sanity-checking a grammar's behavior one line at
// a time.
type traceHandler struct {
	shifts, reduces int
}

func (h *traceHandler) Start() { h.shifts, h.reduces = 0, 0 }
func (h *traceHandler) Source(src string) {
	pterm.Debug.Printfln("source: %q", src)
}
func (h *traceHandler) Shift(tok jsparser.Token) {
	h.shifts++
	pterm.Debug.Printfln("shift %s %q", tok.Class, tok.Lexeme)
}
func (h *traceHandler) Reduce(nonTerminal string, production grammar.Production) {
	h.reduces++
	pterm.Debug.Printfln("reduce %s -> %s", nonTerminal, production)
}
func (h *traceHandler) Location(loc harborerrors.Location) {}
func (h *traceHandler) Accept() (interface{}, error) {
	return fmt.Sprintf("%d shifts, %d reduces", h.shifts, h.reduces), nil
}

func runRepl(args []string) error {
	fs := pflag.NewFlagSet("repl", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "harbor.toml", "project config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := harborcfg.Load(*configPath)
	if err != nil {
		return err
	}

	grammarSrc, err := loadSyntax(cfg.Parser.GrammarFile)
	if err != nil {
		return err
	}
	table, conflicts := lalrgen.Build(grammarSrc, cfg.Parser.PreferShift)
	for _, c := range conflicts {
		pterm.Warning.Printfln("%v", c)
	}

	lexGrammar, err := loadLexicon(cfg.Lexer.GrammarFile)
	if err != nil {
		return err
	}
	builder := dfagen.NewBuilder(lexGrammar)
	nfa, tokenStarts, err := builder.Build()
	if err != nil {
		return err
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
		return err
	}

	driverCfg := jsparser.Config{
		Table: table,
		GoalOf: func(state string, templateTailAllowed bool) jsparser.Goal {
			return jsparser.InputElementDiv
		},
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: "harbor> "})
	if err != nil {
		return fmt.Errorf("create readline config: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		lexer := jsparser.NewLexer(dfa, line)
		handler := &traceHandler{}
		tr := trace.NewSession(func(s string) { pterm.FgGray.Println(s) })
		d := jsparser.New(driverCfg, lexer, handler, tr)

		result, err := d.Run(line)
		if err != nil {
			pterm.Error.Printfln("%v", err)
			continue
		}
		fmt.Fprintln(os.Stdout, result)
	}
}
