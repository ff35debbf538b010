package jsparser

import (
	"fmt"
	"strings"

	"github.com/harborlang/harbor/internal/harborerrors"
	"github.com/harborlang/harbor/internal/lalrgen"
	"github.com/harborlang/harbor/internal/lalrgen/grammar"
	"github.com/harborlang/harbor/internal/trace"
	"github.com/harborlang/harbor/internal/util"
)

// SyntaxHandler receives parse events in source order (spec.md §6). Driver
// never builds a parse tree itself; it is entirely up to the handler to
// decide what, if anything, to construct from shift/reduce callbacks.
type SyntaxHandler interface {
	Start()
	Source(src string)
	Shift(tok Token)
	Reduce(nonTerminal string, production grammar.Production)
	Location(loc harborerrors.Location)
	Accept() (artifact interface{}, err error)
}

// Config bundles the pieces Driver needs beyond the grammar-derived table:
// which states disallow ASI outright, which states are part of a do-while
// ASI carve-out, and which reduces should re-check for a line-terminator
// sensitive goto.
type Config struct {
	Table             *lalrgen.Table
	NoASIStates       util.StringSet
	DoWhileASIStates  util.StringSet
	LineSensitiveGoto map[string]map[string]string // state -> non-terminal -> alt goto state, taken only right after a line break
	GoalOf            func(state string, templateTailAllowed bool) Goal
}

// templateContext tracks one open template-literal substitution's brace
// depth, pushed on TemplateHead and popped on TemplateTail (spec.md §4.4
// "Goal selection").
type templateContext struct {
	braceDepth int
}

// Driver runs the standard LR drive plus the four wrinkles spec.md §4.4
// names: comment/line-terminator folding, ASI, Replace, and line-sensitive
// contextual goto.
type Driver struct {
	cfg     Config
	lexer   *Lexer
	handler SyntaxHandler
	trace   *trace.Session

	stateStack []string
	tokenStack []Token

	templateStack             []templateContext
	sawLineBreakBeforeCurrent bool
	pendingAfterASI           *Token
}

// New creates a Driver over lexer, ready to Run.
func New(cfg Config, lexer *Lexer, handler SyntaxHandler, tr *trace.Session) *Driver {
	return &Driver{
		cfg:     cfg,
		lexer:   lexer,
		handler: handler,
		trace:   tr,
	}
}

func (d *Driver) notify(format string, args ...interface{}) {
	if d.trace != nil {
		d.trace.Notifyf(format, args...)
	}
}

// Run drives the lexer and LALR table to completion, calling handler
// methods in source order, and returns the handler's accepted artifact or a
// structured SyntaxError/UnexpectedCharacter.
func (d *Driver) Run(src string) (interface{}, error) {
	d.handler.Start()
	d.handler.Source(src)

	d.stateStack = []string{d.cfg.Table.StartState}

	tok, err := d.nextToken()
	if err != nil {
		return nil, err
	}

	for {
		state := d.stateStack[len(d.stateStack)-1]
		d.notify("state %s, token %s %q", state, tok.Class, tok.Lexeme)

		action := d.cfg.Table.Action(state, tok.Class)

		switch action.Type {
		case lalrgen.Replace:
			d.stateStack[len(d.stateStack)-1] = action.State
			d.notify("replace -> %s", action.State)
			continue

		case lalrgen.Shift:
			d.handler.Location(tok.Location)
			d.handler.Shift(tok)
			d.tokenStack = append(d.tokenStack, tok)
			d.trackTemplateContext(tok)
			d.stateStack = append(d.stateStack, action.State)

			next, err := d.nextToken()
			if err != nil {
				return nil, err
			}
			tok = next

		case lalrgen.Reduce:
			n := len(action.Production)
			d.stateStack = d.stateStack[:len(d.stateStack)-n]
			if n > 0 {
				d.tokenStack = d.tokenStack[:max(0, len(d.tokenStack)-countTerminalsInProduction(d.cfg.Table.Grammar(), action.Production))]
			}
			top := d.stateStack[len(d.stateStack)-1]

			target := d.cfg.Table.Goto(top, action.NonTerminal)
			if alt, ok := d.lineSensitiveGoto(top, action.NonTerminal); ok && d.sawLineBreakBeforeCurrent {
				target = alt
			}
			if target == "" {
				return nil, harborerrors.NewSyntaxError(tok.Class, "no valid goto after reduction", tok.Location)
			}

			d.handler.Reduce(action.NonTerminal, action.Production)
			d.stateStack = append(d.stateStack, target)

		case lalrgen.Accept:
			return d.handler.Accept()

		default: // Error
			if synth, ok := d.tryASI(state, tok); ok {
				tok = synth
				continue
			}
			expected := d.expectedSummary(state)
			return nil, harborerrors.NewSyntaxError(humanFor(tok), expected, tok.Location)
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func countTerminalsInProduction(g grammar.Grammar, prod grammar.Production) int {
	n := 0
	for _, sym := range prod {
		if g.IsTerminal(sym) {
			n++
		}
	}
	return n
}

func humanFor(tok Token) string {
	if tok.Class == "$" {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}

// lineSensitiveGoto reports the alternate goto a contextual keyword (async
// arrow functions, restricted return/throw/break/continue/yield) takes when
// a line break preceded the current token (spec.md §4.4 wrinkle 4).
func (d *Driver) lineSensitiveGoto(state, nonTerminal string) (string, bool) {
	row, ok := d.cfg.LineSensitiveGoto[state]
	if !ok {
		return "", false
	}
	alt, ok := row[nonTerminal]
	return alt, ok
}

// tryASI attempts the automatic-semicolon-insertion recovery (spec.md §4.4
// wrinkle 2): only fires on EOF, `}`, or when a line break occurred before
// the offending token, and never in a state enumerated as ASI-disallowed
// (with the do-while carve-out state set getting its own allowance even
// though it would otherwise be excluded).
func (d *Driver) tryASI(state string, tok Token) (Token, bool) {
	if d.cfg.NoASIStates.Has(state) && !d.cfg.DoWhileASIStates.Has(state) {
		return Token{}, false
	}

	eligible := tok.Class == "$" || tok.Lexeme == "}" || d.sawLineBreakBeforeCurrent
	if !eligible {
		return Token{}, false
	}

	semi := Token{Class: "semicolon", Lexeme: ";", Synthetic: true, Location: d.lastNonTriviaLocation()}

	if act := d.cfg.Table.Action(state, semi.Class); act.Type == lalrgen.Error {
		return Token{}, false
	}

	d.notify("ASI: synthesizing ';' before %s", tok.Class)
	d.pendingAfterASI = &tok
	return semi, true
}

func (d *Driver) lastNonTriviaLocation() harborerrors.Location {
	if len(d.tokenStack) == 0 {
		return harborerrors.Location{Line: 1, Column: 1}
	}
	last := d.tokenStack[len(d.tokenStack)-1]
	return last.Location
}

// trackTemplateContext maintains the template-substitution stack: pushed on
// TemplateHead, popped on TemplateTail, brace depth adjusted on `{`/`}`.
func (d *Driver) trackTemplateContext(tok Token) {
	switch tok.Class {
	case "templatehead":
		d.templateStack = append(d.templateStack, templateContext{})
	case "templatetail":
		if len(d.templateStack) > 0 {
			d.templateStack = d.templateStack[:len(d.templateStack)-1]
		}
	case "lbrace":
		if len(d.templateStack) > 0 {
			d.templateStack[len(d.templateStack)-1].braceDepth++
		}
	case "rbrace":
		if len(d.templateStack) > 0 {
			d.templateStack[len(d.templateStack)-1].braceDepth--
		}
	}
}

func (d *Driver) templateTailAllowed() bool {
	if len(d.templateStack) == 0 {
		return false
	}
	return d.templateStack[len(d.templateStack)-1].braceDepth == 0
}

// triviaClasses names lexer token classes that never reach the grammar:
// whitespace and comments. Comments are still surfaced to the handler as
// Comment tokens (spec.md §4.4 wrinkle 1) but, for grammar purposes,
// collapse into a line-break signal identical to a bare LineTerminatorSequence
// whenever their lexeme spans more than one line.
var triviaClasses = map[string]bool{
	"whitespace":             true,
	"linecomment":            true,
	"blockcomment":           true,
	"lineterminatorsequence": true,
}

func (d *Driver) nextToken() (Token, error) {
	if d.pendingAfterASI != nil {
		tok := *d.pendingAfterASI
		d.pendingAfterASI = nil
		return tok, nil
	}

	d.sawLineBreakBeforeCurrent = false

	for {
		state := d.stateStack[len(d.stateStack)-1]
		goal := d.cfg.GoalOf(state, d.templateTailAllowed())

		lineBefore := d.lexer.line
		tok, err := d.lexer.Next(goal)
		if err != nil {
			return Token{}, err
		}

		if d.lexer.line > lineBefore {
			d.sawLineBreakBeforeCurrent = true
		}

		if !triviaClasses[tok.Class] {
			return tok, nil
		}
		if tok.Class == "linecomment" {
			d.sawLineBreakBeforeCurrent = true
		}
		d.handler.Shift(tok) // surfaced as a Comment/WhiteSpace token, never pushed onto stateStack
	}
}

func (d *Driver) expectedSummary(state string) string {
	terms := d.cfg.Table.Grammar().Terminals()
	var human []string
	for _, t := range terms {
		if d.cfg.Table.Action(state, t).Type != lalrgen.Error {
			cls := d.cfg.Table.Grammar().Term(t)
			human = append(human, util.ArticleFor(cls.Human(), false)+" "+cls.Human())
		}
	}
	if len(human) == 0 {
		return "expected end of input"
	}
	return "expected " + strings.Join(human, " or ")
}
