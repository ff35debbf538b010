/*
Harborctl builds and exercises lexical and syntactic analysis tables from
grammar source files.

Usage:

	harborctl <command> [flags]

The commands are:

	dfagen
		Compile a lexical grammar TOML file into a minimized DFA family and
		write it out.

	lalrgen
		Compile a context-free grammar TOML file into an LALR(1) ACTION/GOTO
		table and write it out.

	repl
		Start an interactive session that lexes and parses each line typed
		against the tables named in the project config file, printing the
		shift/reduce trace as it goes.

Flags common to dfagen and lalrgen:

	-c, --config FILE
		Project config file to read grammar paths and output settings from.
		Defaults to "harbor.toml" in the current directory.

	-o, --out DIR
		Override the output directory from the config file.
*/
package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/harborlang/harbor/internal/version"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitBuildError
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(ExitUsageError)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "dfagen":
		err = runDfagen(args)
	case "lalrgen":
		err = runLalrgen(args)
	case "repl":
		err = runRepl(args)
	case "-h", "--help", "help":
		printUsage()
		os.Exit(ExitSuccess)
	case "-v", "--version", "version":
		fmt.Println("harborctl " + version.Current)
		os.Exit(ExitSuccess)
	default:
		pterm.Error.Printfln("harborctl: unknown command %q", cmd)
		printUsage()
		os.Exit(ExitUsageError)
	}

	if err != nil {
		pterm.Error.Printfln("harborctl: %v", err)
		os.Exit(ExitBuildError)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: harborctl <dfagen|lalrgen|repl> [flags]")
}
