package dictprotocol

import "strings"

// Database is a named dictionary source hosted by the server.
type Database struct {
	Name        string
	Description string
}

// MatchingStrategy is a named match algorithm such as "prefix" or "exact".
type MatchingStrategy struct {
	Name        string
	Description string
}

// Definition is one entry of a DEFINE response.
type Definition struct {
	// Word is the word that was queried.
	Word string
	// Database is the name of the database the entry came from.
	Database string
	// DatabaseDescription is the description the server sent on the 151 line.
	DatabaseDescription string
	// Body holds the definition text, one element per line, in server order.
	Body []string
}

var (
	// AllDatabases searches every database on the server.
	AllDatabases = Database{Name: AllDatabasesName, Description: "All databases"}

	// FirstMatch searches databases in order and stops at the first hit.
	FirstMatch = Database{Name: FirstMatchName, Description: "First database with a match"}

	// DefaultStrategy lets the server pick its default strategy.
	DefaultStrategy = MatchingStrategy{Name: DefaultStrategyName, Description: "Server default"}
)

// NewDatabase returns a Database with the given name and no description.
func NewDatabase(name string) Database {
	return Database{Name: name}
}

// NewStrategy returns a MatchingStrategy with the given name and no description.
func NewStrategy(name string) MatchingStrategy {
	return MatchingStrategy{Name: name}
}

// IsSpecial reports whether the database is one of the server-side
// sentinels ("*" or "!").
func (d Database) IsSpecial() bool {
	return d.Name == AllDatabasesName || d.Name == FirstMatchName
}

func (d Database) String() string {
	if d.Description == "" {
		return d.Name
	}
	return d.Name + " (" + d.Description + ")"
}

func (s MatchingStrategy) String() string {
	if s.Description == "" {
		return s.Name
	}
	return s.Name + " (" + s.Description + ")"
}

// Text returns the definition body joined with newlines.
func (d Definition) Text() string {
	return strings.Join(d.Body, "\n")
}
