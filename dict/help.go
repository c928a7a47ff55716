// =============================================================================
// help.go - REPL help text
// =============================================================================
//
//   .help          Command overview
//   .help <topic>  Detailed help for one command
//
// Topics are looked up case-insensitively with any leading dot removed,
// so ".help .use" and ".help use" are the same.
//
// =============================================================================

package main

import (
	"fmt"
	"io"
	"strings"
)

// printHelp writes the overview, or the detailed help for topic, to out.
// An unknown topic is reported on errOut.
func printHelp(out, errOut io.Writer, topic string) {
	if topic == "" {
		printHelpOverview(out)
		return
	}

	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(topic)), ".")
	if text, ok := commandHelp[key]; ok {
		fmt.Fprintln(out, text)
		return
	}

	fmt.Fprintf(errOut, "Error: No help for '%s'. Type .help to see available commands.\n", topic)
}

func printHelpOverview(out io.Writer) {
	fmt.Fprint(out, `Lookups:
  <word>                    Define word in the current database
  define <word> [db]        Define word, optionally in another database
  match <word> [strat] [db] List words matching word

Commands:
  .db                       List databases
  .strat                    List match strategies
  .info [db]                Show information about a database
  .use <db>                 Set the current database
  .strategy <strat>         Set the current match strategy
  .status                   Show connection and lookup settings
  .stats                    Show request statistics
  .help [cmd]               Show help (or help for a specific command)
  .quit                     Exit

Quote words that contain spaces: define "ice cream" wn
`)
}

// commandHelp holds the detailed help for each topic.
var commandHelp = map[string]string{
	"define": `define <word> [database]

Look up every definition of a word. Without a database the current one
is used (see .use). A line that does not start with a command keyword
is looked up as a whole, so "ice cream" and define "ice cream" are the
same.

Special databases:
  *   Search all databases and return every definition
  !   Search databases in order and stop at the first with a match

Examples:
  define hello
  define hello wn
  define "ice cream" !`,

	"match": `match <word> [strategy] [database]

List headwords that match a word under a strategy. Without a strategy
the current one is used (see .strategy); "." asks for the server's
default. Use .strat to see which strategies the server offers.

Examples:
  match hel prefix
  match colour soundex wn`,

	"db": `.db (alias: .databases)

List the databases the server offers, with their descriptions. The list
is fetched once per session and cached.`,

	"strat": `.strat (alias: .strategies)

List the match strategies the server offers. The list is fetched once
per session and cached.`,

	"info": `.info [database]

Show the server's description of a database: its source, copyright and
version. Without an argument the current database is described.`,

	"use": `.use <database>

Set the database used by lookups that do not name one. The name must be
one the server lists in .db, or "*" or "!".

Examples:
  .use wn
  .use *`,

	"strategy": `.strategy <strategy>

Set the strategy used by match when none is given. The name must be one
the server lists in .strat, or "." for the server default.

Example:
  .strategy prefix`,

	"status": `.status

Show the server address and greeting, and the current database and
strategy.`,

	"stats": `.stats

Show the number of requests sent, replies by status code and errors by
kind for this session.`,

	"help": `.help [command]

Show the command overview, or detailed help for one command.`,

	"quit": `.quit (aliases: .exit, .q)

Close the connection and exit. Ctrl-D does the same.`,
}

func init() {
	commandHelp["databases"] = commandHelp["db"]
	commandHelp["strategies"] = commandHelp["strat"]
	commandHelp["exit"] = commandHelp["quit"]
}
