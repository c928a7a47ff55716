package dictprotocol

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Session is the request surface of a DICT connection. *Client
// implements it.
type Session interface {
	Define(word string, db Database) ([]Definition, error)
	Match(word string, strategy MatchingStrategy, db Database) ([]string, error)
	ListDatabases() (map[string]Database, error)
	ListStrategies() ([]MatchingStrategy, error)
	DescribeDatabase(db Database) (string, error)
}

var _ Session = (*Client)(nil)

// Catalog caches the database and strategy lists of a session. The lists
// rarely change for the life of a connection, so they are fetched once
// and reused until Invalidate is called. Concurrent misses share a
// single round trip.
type Catalog struct {
	session Session
	group   singleflight.Group

	mu         sync.Mutex
	databases  map[string]Database
	strategies []MatchingStrategy
}

// NewCatalog creates a catalog backed by session.
func NewCatalog(session Session) *Catalog {
	return &Catalog{session: session}
}

// Databases returns the server's databases keyed by name. The map is a
// copy the caller may modify.
func (c *Catalog) Databases() (map[string]Database, error) {
	c.mu.Lock()
	cached := c.databases
	c.mu.Unlock()
	if cached != nil {
		return maps.Clone(cached), nil
	}

	v, err, _ := c.group.Do("databases", func() (any, error) {
		dbs, err := c.session.ListDatabases()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.databases = dbs
		c.mu.Unlock()
		return dbs, nil
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(v.(map[string]Database)), nil
}

// SortedDatabases returns the databases ordered by name.
func (c *Catalog) SortedDatabases() ([]Database, error) {
	dbs, err := c.Databases()
	if err != nil {
		return nil, err
	}
	out := make([]Database, 0, len(dbs))
	for _, db := range dbs {
		out = append(out, db)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Strategies returns the server's match strategies in server order.
func (c *Catalog) Strategies() ([]MatchingStrategy, error) {
	c.mu.Lock()
	cached := c.strategies
	c.mu.Unlock()
	if cached != nil {
		return slices.Clone(cached), nil
	}

	v, err, _ := c.group.Do("strategies", func() (any, error) {
		strats, err := c.session.ListStrategies()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.strategies = strats
		c.mu.Unlock()
		return strats, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]MatchingStrategy)), nil
}

// Database resolves name to a Database. The "*" and "!" sentinels resolve
// without asking the server. Unknown names are an InvalidDatabase error.
func (c *Catalog) Database(name string) (Database, error) {
	switch name {
	case AllDatabasesName:
		return AllDatabases, nil
	case FirstMatchName:
		return FirstMatch, nil
	}
	dbs, err := c.Databases()
	if err != nil {
		return Database{}, err
	}
	db, ok := dbs[name]
	if !ok {
		return Database{}, &Error{Kind: KindInvalidDatabase, Detail: name}
	}
	return db, nil
}

// Strategy resolves name to a MatchingStrategy. "." resolves to the
// server default without a round trip.
func (c *Catalog) Strategy(name string) (MatchingStrategy, error) {
	if name == DefaultStrategyName {
		return DefaultStrategy, nil
	}
	strats, err := c.Strategies()
	if err != nil {
		return MatchingStrategy{}, err
	}
	for _, s := range strats {
		if s.Name == name {
			return s, nil
		}
	}
	return MatchingStrategy{}, &Error{Kind: KindInvalidStrategy, Detail: name}
}

// Invalidate drops the cached lists.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.databases = nil
	c.strategies = nil
	c.mu.Unlock()
}
