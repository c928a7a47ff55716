// Package dictprotocol implements the client side of the DICT dictionary
// lookup protocol (RFC 2229).
//
// Protocol Format:
//
//	Request (client -> server):  <VERB> [arguments...]\r\n
//	Status line:                 <3-digit code> <free text>\r\n
//	Text block:                  lines terminated by a line holding a single "."
//
// Example Session:
//
//	SRV: 220 dict.org dictd 1.12 <auth.mime> <100@dict.org>
//	CLI: DEFINE wn hello
//	SRV: 150 1 definitions retrieved
//	SRV: 151 "hello" wn "WordNet (r) 3.0 (2006)"
//	SRV: hello
//	SRV:     n 1: an expression of greeting
//	SRV: .
//	SRV: 250 ok
//	CLI: QUIT
//	SRV: 221 bye
package dictprotocol

import "time"

// Protocol constants.
const (
	// DefaultPort is the IANA assigned DICT port.
	DefaultPort = 2628

	// LineTerminator ends every command line sent to the server.
	LineTerminator = "\r\n"

	// BlockTerminator is the line that ends a text block.
	BlockTerminator = "."

	// MaxLineLength is the longest response line accepted, in bytes.
	// RFC 2229 limits lines to 1024 octets; servers in the wild exceed
	// that for long definition lines, so the client is more lenient.
	MaxLineLength = 64 * 1024

	// MaxEntryCount is the largest entry count accepted in a 110, 111,
	// 150 or 152 status line.
	MaxEntryCount = 1 << 20

	// ConnectionTimeout is the timeout for establishing connections.
	ConnectionTimeout = 10 * time.Second

	// QuitTimeout bounds how long Close waits for the 221 acknowledgement.
	QuitTimeout = 2 * time.Second
)

// Status codes used by the client.
const (
	CodeDatabasesPresent     = 110
	CodeStrategiesPresent    = 111
	CodeDatabaseInfo         = 112
	CodeDefinitionsRetrieved = 150
	CodeDefinition           = 151
	CodeMatchesFound         = 152
	CodeGreeting             = 220
	CodeClosing              = 221
	CodeOK                   = 250
	CodeUnknownCommand       = 500
	CodeInvalidDatabase      = 550
	CodeInvalidStrategy      = 551
	CodeNoMatch              = 552
	CodeNoDatabases          = 554
	CodeNoStrategies         = 555
)

// Special database and strategy names, passed verbatim to the server.
const (
	// AllDatabasesName queries every database.
	AllDatabasesName = "*"

	// FirstMatchName queries databases in server order and stops at the
	// first database with a result.
	FirstMatchName = "!"

	// DefaultStrategyName selects the server's default match strategy.
	DefaultStrategyName = "."
)
