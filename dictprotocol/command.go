package dictprotocol

import "strings"

// Command verbs.
const (
	VerbDefine = "DEFINE"
	VerbMatch  = "MATCH"
	VerbShow   = "SHOW"
	VerbQuit   = "QUIT"
)

// Command represents one request line sent to the server.
type Command struct {
	Verb string
	Args []string
}

// NewDefineCommand creates a DEFINE command for word in db.
func NewDefineCommand(db Database, word string) Command {
	return Command{Verb: VerbDefine, Args: []string{db.Name, word}}
}

// NewMatchCommand creates a MATCH command for word in db using strategy.
func NewMatchCommand(db Database, strategy MatchingStrategy, word string) Command {
	return Command{Verb: VerbMatch, Args: []string{db.Name, strategy.Name, word}}
}

// NewShowDatabasesCommand creates a SHOW DB command.
func NewShowDatabasesCommand() Command {
	return Command{Verb: VerbShow, Args: []string{"DB"}}
}

// NewShowStrategiesCommand creates a SHOW STRAT command.
func NewShowStrategiesCommand() Command {
	return Command{Verb: VerbShow, Args: []string{"STRAT"}}
}

// NewShowInfoCommand creates a SHOW INFO command for db.
func NewShowInfoCommand(db Database) Command {
	return Command{Verb: VerbShow, Args: []string{"INFO", db.Name}}
}

// NewQuitCommand creates a QUIT command.
func NewQuitCommand() Command {
	return Command{Verb: VerbQuit}
}

// Name returns a short label for logs and metrics, e.g. "SHOW DB".
func (c Command) Name() string {
	if c.Verb == VerbShow && len(c.Args) > 0 {
		return c.Verb + " " + c.Args[0]
	}
	return c.Verb
}

// Format returns the command as sent on the wire, without the line
// terminator. Arguments that are not plain atoms are quoted.
func (c Command) Format() string {
	var b strings.Builder
	b.WriteString(c.Verb)
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(quoteArg(arg))
	}
	return b.String()
}

// Validate rejects arguments that would not survive as a single command
// line: CR, LF and NUL cannot be quoted in RFC 2229.
func (c Command) Validate() error {
	for _, arg := range c.Args {
		if i := strings.IndexAny(arg, "\r\n\x00"); i >= 0 {
			return newArgumentError("%s argument %q contains control character %q", c.Verb, arg, arg[i])
		}
	}
	return nil
}

// FormatLine returns the command with the CRLF line terminator.
func (c Command) FormatLine() string {
	return c.Format() + LineTerminator
}

// quoteArg quotes arg when it is empty or contains characters that would
// otherwise split it or be read as a quote.
func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"\\'") {
		return arg
	}
	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
