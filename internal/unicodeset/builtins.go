package unicodeset

import (
	"fmt"
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// BuiltIn names the predefined character classes a lexical grammar's
// UnicodeSet(patterns) term may reference by tag, per spec.md §4.2 ("TAB,
// VT, FF, SP, USP, LF, CR, LS, PS, ZWNJ, ZWJ, ZWNBSP").
type BuiltIn string

const (
	TAB    BuiltIn = "TAB"
	VT     BuiltIn = "VT"
	FF     BuiltIn = "FF"
	SP     BuiltIn = "SP"
	USP    BuiltIn = "USP"
	LF     BuiltIn = "LF"
	CR     BuiltIn = "CR"
	LS     BuiltIn = "LS"
	PS     BuiltIn = "PS"
	ZWNJ   BuiltIn = "ZWNJ"
	ZWJ    BuiltIn = "ZWJ"
	ZWNBSP BuiltIn = "ZWNBSP"
)

const (
	runeLS     = ' '
	runePS     = ' '
	runeZWNJ   = '‌'
	runeZWJ    = '‍'
	runeZWNBSP = '﻿'
)

// zsTable is the Unicode "Space_Separator" general category, used to build
// USP (the ECMA-262 class of any Unicode space separator; it includes
// U+0020, which SP also names individually). Rather than hand-copy
// the Zs code point list the way a one-off script might, the built-in table
// below is derived at init time from x/text/unicode/rangetable against
// unicode.Zs, so it tracks whatever Unicode version the x/text module in
// go.mod was built against.
var zsTable = rangetable.Merge(unicode.Zs)

// builtinSets is computed once at package init; Resolve looks entries up
// from it rather than reconstructing a Set per call.
var builtinSets map[BuiltIn]Set

func init() {
	builtinSets = map[BuiltIn]Set{
		TAB:  Single('\t'),
		VT:   Single('\v'),
		FF:   Single('\f'),
		SP:   Single(' '),
		LF:   Single('\n'),
		CR:   Single('\r'),
		LS:   Single(runeLS),
		PS:   Single(runePS),
		ZWNJ: Single(runeZWNJ),
		ZWJ:  Single(runeZWJ),
		// ZWNBSP (zero width no-break space / BOM) is U+FEFF. It is
		// deliberately not part of USP's Zs-derived set below.
		ZWNBSP: Single(runeZWNBSP),
	}

	var uspSpans []Span
	rangetable.Visit(zsTable, func(r rune) {
		uspSpans = append(uspSpans, Span{Lo: r, Hi: r + 1})
	})
	builtinSets[USP] = Of(uspSpans, false)
}

// Resolve returns the Set for a built-in pattern tag. It returns an error
// for any tag not defined in spec.md §4.2's list, which is how a malformed
// grammar (typo'd built-in name) is surfaced as a grammar error rather than
// silently compiling to the empty set.
func Resolve(tag BuiltIn) (Set, error) {
	s, ok := builtinSets[tag]
	if !ok {
		return Set{}, fmt.Errorf("unicodeset: undefined built-in pattern %q", tag)
	}
	return s, nil
}
