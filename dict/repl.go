// =============================================================================
// repl.go - Interactive lookup loop
// =============================================================================
//
// Reads lines from a lineSource, translates them into lookups or dot
// commands, and renders the results. Lookup defaults (.use, .strategy)
// are checked against the cached server catalog.
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/koostia/DICT-Client/dictprotocol"
	"github.com/prometheus/client_golang/prometheus"
)

// defaultWidth is the output width used when stdout is not a terminal.
const defaultWidth = 72

// lineSource is the input side of the REPL; *LineEditor implements it.
type lineSource interface {
	GetLine(prompt string) (string, error)
}

// repl holds the state of an interactive session: the connection, the
// cached catalog and the current lookup defaults.
type repl struct {
	session  dictprotocol.Session
	catalog  *dictprotocol.Catalog
	database dictprotocol.Database
	strategy dictprotocol.MatchingStrategy

	out    io.Writer
	errOut io.Writer
	width  int

	// Shown by .status and .stats.
	addr     string
	greeting string
	gatherer prometheus.Gatherer
}

func newREPL(session dictprotocol.Session, cfg Config, out, errOut io.Writer) *repl {
	width := terminalWidth(out, defaultWidth)
	if width > 100 {
		width = 100
	}
	return &repl{
		session:  session,
		catalog:  dictprotocol.NewCatalog(session),
		database: lookupDatabase(cfg.Lookup.Database),
		strategy: lookupStrategy(cfg.Lookup.Strategy),
		out:      out,
		errOut:   errOut,
		width:    width,
	}
}

// lookupDatabase maps a configured name to a Database, keeping the
// sentinel descriptions.
func lookupDatabase(name string) dictprotocol.Database {
	switch name {
	case dictprotocol.AllDatabasesName:
		return dictprotocol.AllDatabases
	case dictprotocol.FirstMatchName:
		return dictprotocol.FirstMatch
	default:
		return dictprotocol.NewDatabase(name)
	}
}

func lookupStrategy(name string) dictprotocol.MatchingStrategy {
	if name == dictprotocol.DefaultStrategyName {
		return dictprotocol.DefaultStrategy
	}
	return dictprotocol.NewStrategy(name)
}

// prompt shows the current database, e.g. "[dict *] > ".
func (r *repl) prompt() string {
	return fmt.Sprintf("[%s %s] > ", appName, r.database.Name)
}

// runREPL reads and executes lines until .quit or end of input.
func runREPL(r *repl, input lineSource) {
	for {
		line, err := input.GetLine(r.prompt())
		if err != nil {
			if !errors.Is(err, io.EOF) {
				printError(r.errOut, err.Error())
			}
			fmt.Fprintln(r.out)
			return
		}

		if quit := r.execute(line); quit {
			return
		}
	}
}

// execute runs one line of input and reports whether the REPL should
// exit. Errors are printed, not returned, so the session continues.
func (r *repl) execute(line string) bool {
	act, err := translateInput(line)
	if err != nil {
		printError(r.errOut, err.Error())
		return false
	}

	switch act.kind {
	case actionNone:
	case actionQuit:
		return true
	case actionHelp:
		printHelp(r.out, r.errOut, act.topic)
	case actionDefine:
		err = r.define(act.word, act.database)
	case actionMatch:
		err = r.match(act.word, act.strategy, act.database)
	case actionDatabases:
		err = r.showDatabases()
	case actionStrategies:
		err = r.showStrategies()
	case actionInfo:
		err = r.showInfo(act.database)
	case actionUse:
		err = r.use(act.database)
	case actionSetStrategy:
		err = r.setStrategy(act.strategy)
	case actionStatus:
		r.showStatus()
	case actionStats:
		err = r.showStats()
	}

	if err != nil {
		printError(r.errOut, describeError(err))
		if r.connectionLost() {
			fmt.Fprintln(r.errOut, "The connection was lost; restart dict to reconnect.")
			return true
		}
	}
	return false
}

// connectionLost reports whether the session has been torn down, which
// the client does after any transport or framing failure.
func (r *repl) connectionLost() bool {
	c, ok := r.session.(interface{ IsConnected() bool })
	return ok && !c.IsConnected()
}

func (r *repl) databaseOrDefault(name string) dictprotocol.Database {
	if name == "" {
		return r.database
	}
	return lookupDatabase(name)
}

func (r *repl) define(word, database string) error {
	if word == "" {
		return fmt.Errorf("nothing to define")
	}
	defs, err := r.session.Define(word, r.databaseOrDefault(database))
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Fprintf(r.out, "No definitions found for %q.\n", word)
		return nil
	}
	r.printDefinitions(defs)
	return nil
}

func (r *repl) match(word, strategy, database string) error {
	if word == "" {
		return fmt.Errorf("nothing to match")
	}
	strat := r.strategy
	if strategy != "" {
		strat = lookupStrategy(strategy)
	}
	words, err := r.session.Match(word, strat, r.databaseOrDefault(database))
	if err != nil {
		return err
	}
	if len(words) == 0 {
		fmt.Fprintf(r.out, "No matches found for %q.\n", word)
		return nil
	}
	r.printColumns(words)
	return nil
}

func (r *repl) showDatabases() error {
	dbs, err := r.catalog.SortedDatabases()
	if err != nil {
		return err
	}
	nameWidth := 0
	for _, db := range dbs {
		nameWidth = max(nameWidth, len(db.Name))
	}
	for _, db := range dbs {
		fmt.Fprintf(r.out, "  %-*s  %s\n", nameWidth, db.Name, db.Description)
	}
	return nil
}

func (r *repl) showStrategies() error {
	strats, err := r.catalog.Strategies()
	if err != nil {
		return err
	}
	nameWidth := 0
	for _, s := range strats {
		nameWidth = max(nameWidth, len(s.Name))
	}
	for _, s := range strats {
		fmt.Fprintf(r.out, "  %-*s  %s\n", nameWidth, s.Name, s.Description)
	}
	return nil
}

func (r *repl) showInfo(database string) error {
	db := r.databaseOrDefault(database)
	info, err := r.session.DescribeDatabase(db)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, info)
	return nil
}

// use switches the default database after checking it exists.
func (r *repl) use(name string) error {
	db, err := r.catalog.Database(name)
	if err != nil {
		return err
	}
	r.database = db
	fmt.Fprintf(r.out, "Using database %s\n", db)
	return nil
}

func (r *repl) setStrategy(name string) error {
	s, err := r.catalog.Strategy(name)
	if err != nil {
		return err
	}
	r.strategy = s
	fmt.Fprintf(r.out, "Using strategy %s\n", s)
	return nil
}

func (r *repl) showStatus() {
	fmt.Fprintf(r.out, "Server:   %s\n", r.addr)
	if r.greeting != "" {
		fmt.Fprintf(r.out, "Greeting: %s\n", r.greeting)
	}
	fmt.Fprintf(r.out, "Database: %s\n", r.database)
	fmt.Fprintf(r.out, "Strategy: %s\n", r.strategy)
}

// showStats prints the session's request counters.
func (r *repl) showStats() error {
	if r.gatherer == nil {
		fmt.Fprintln(r.out, "No statistics collected.")
		return nil
	}
	families, err := r.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var rows []string
	for _, f := range families {
		name := strings.TrimPrefix(f.GetName(), "dict_client_")
		for _, m := range f.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetValue())
			}
			key := name
			if len(labels) > 0 {
				key += " " + strings.Join(labels, ",")
			}
			switch {
			case m.GetCounter() != nil:
				rows = append(rows, fmt.Sprintf("  %-40s %g", key, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				avg := 0.0
				if h.GetSampleCount() > 0 {
					avg = h.GetSampleSum() / float64(h.GetSampleCount()) * 1000
				}
				rows = append(rows, fmt.Sprintf("  %-40s %d requests, avg %.1fms", key, h.GetSampleCount(), avg))
			}
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "No requests yet.")
		return nil
	}
	sort.Strings(rows)
	for _, row := range rows {
		fmt.Fprintln(r.out, row)
	}
	return nil
}

// printDefinitions prints each definition under a header naming its
// database.
func (r *repl) printDefinitions(defs []dictprotocol.Definition) {
	rule := strings.Repeat("-", r.width)
	for i, def := range defs {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		source := def.Database
		if def.DatabaseDescription != "" {
			source = fmt.Sprintf("%s (%s)", def.Database, def.DatabaseDescription)
		}
		fmt.Fprintf(r.out, "From %s:\n%s\n", source, rule)
		fmt.Fprintln(r.out, def.Text())
	}
	fmt.Fprintf(r.out, "\n%d definition(s) found.\n", len(defs))
}

// printColumns lays words out in columns that fit the output width.
func (r *repl) printColumns(words []string) {
	colWidth := 0
	for _, w := range words {
		colWidth = max(colWidth, len(w))
	}
	colWidth += 2
	cols := r.width / colWidth
	if cols < 1 {
		cols = 1
	}

	for i, w := range words {
		if (i+1)%cols == 0 || i == len(words)-1 {
			fmt.Fprintln(r.out, w)
		} else {
			fmt.Fprintf(r.out, "%-*s", colWidth, w)
		}
	}
}
