// Package dictprotocol provides a client for the DICT dictionary lookup
// protocol defined in RFC 2229.
//
// # Protocol Overview
//
// DICT is a line-oriented text protocol over one TCP connection (port
// 2628 by default). Every reply starts with a status line:
//
//	<3-digit code> <free text>\r\n
//
// Some codes announce data that follows. Definitions and database
// information arrive as text blocks ended by a line holding a single ".".
// Database, strategy and match lists are governed by the count the status
// line declares.
//
// # Basic Usage
//
//	client, err := dictprotocol.Dial(ctx, "dict.org", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	defs, err := client.Define("hello", dictprotocol.AllDatabases)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, def := range defs {
//	    fmt.Printf("From %s:\n%s\n", def.Database, def.Text())
//	}
//
// # Errors
//
// Every failure is a *Error. Use errors.Is with the exported sentinels to
// branch on the kind, and errors.As to read the server's code and text:
//
//	_, err := client.Match("hel", dictprotocol.NewStrategy("prefix"), dictprotocol.NewDatabase("nope"))
//	if errors.Is(err, dictprotocol.ErrInvalidDatabase) {
//	    var de *dictprotocol.Error
//	    errors.As(err, &de)
//	    fmt.Println(de.Code, de.Detail)
//	}
//
// "No match" (552) is not an error: Define and Match return an empty
// slice. Errors that leave the reply framing unknown (end of stream,
// malformed status lines, count mismatches) close the session.
//
// # Thread Safety
//
// The Client type is safe for concurrent use from multiple goroutines.
// Requests are serialised on the connection.
package dictprotocol
