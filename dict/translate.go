package main

import (
	"fmt"
	"strings"
)

// actionKind identifies what a line of REPL input asks for.
type actionKind int

const (
	actionNone actionKind = iota
	actionDefine
	actionMatch
	actionDatabases
	actionStrategies
	actionInfo
	actionUse
	actionSetStrategy
	actionStatus
	actionStats
	actionHelp
	actionQuit
)

// action is one parsed line of REPL input. Empty database and strategy
// fields mean "use the current default".
type action struct {
	kind     actionKind
	word     string
	database string
	strategy string
	topic    string
}

// translateInput parses a REPL line into an action.
//
//	<word...>                      define the rest of the line
//	define <word> [db]             define with an explicit database
//	match <word> [strategy] [db]   list matching words
//	.db .strat .info [db] .use <db> .strategy <s> .status .stats .help .quit
//
// Words containing spaces can be quoted: define "ice cream" wn.
func translateInput(line string) (action, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return action{kind: actionNone}, nil
	}

	if strings.HasPrefix(trimmed, ".") {
		return translateDotCommand(trimmed)
	}

	keyword, rest, _ := strings.Cut(trimmed, " ")
	switch strings.ToLower(keyword) {
	case "define":
		args, err := splitArgs(rest)
		if err != nil {
			return action{}, err
		}
		if len(args) == 0 || len(args) > 2 {
			return action{}, fmt.Errorf("usage: define <word> [database]")
		}
		a := action{kind: actionDefine, word: args[0]}
		if len(args) == 2 {
			a.database = args[1]
		}
		return a, nil

	case "match":
		args, err := splitArgs(rest)
		if err != nil {
			return action{}, err
		}
		if len(args) == 0 || len(args) > 3 {
			return action{}, fmt.Errorf("usage: match <word> [strategy] [database]")
		}
		a := action{kind: actionMatch, word: args[0]}
		if len(args) >= 2 {
			a.strategy = args[1]
		}
		if len(args) == 3 {
			a.database = args[2]
		}
		return a, nil
	}

	// A bare line is a lookup of the whole line, so phrases work unquoted.
	word := trimmed
	if args, err := splitArgs(trimmed); err == nil && len(args) == 1 {
		word = args[0]
	}
	return action{kind: actionDefine, word: word}, nil
}

func translateDotCommand(line string) (action, error) {
	keyword, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(keyword) {
	case ".quit", ".exit", ".q":
		return action{kind: actionQuit}, nil
	case ".help", ".h", ".?":
		return action{kind: actionHelp, topic: rest}, nil
	case ".db", ".databases":
		return action{kind: actionDatabases}, nil
	case ".strat", ".strategies":
		return action{kind: actionStrategies}, nil
	case ".info":
		return action{kind: actionInfo, database: rest}, nil
	case ".use":
		if rest == "" {
			return action{}, fmt.Errorf("usage: .use <database>")
		}
		return action{kind: actionUse, database: rest}, nil
	case ".strategy":
		if rest == "" {
			return action{}, fmt.Errorf("usage: .strategy <strategy>")
		}
		return action{kind: actionSetStrategy, strategy: rest}, nil
	case ".status":
		return action{kind: actionStatus}, nil
	case ".stats":
		return action{kind: actionStats}, nil
	default:
		return action{}, fmt.Errorf("unknown command %s; type .help for a list", keyword)
	}
}

// splitArgs splits s on whitespace, keeping double-quoted runs together
// and dropping the quotes.
func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inQuote := false
	inArg := false

	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			inArg = true
		case (r == ' ' || r == '\t') && !inQuote:
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
