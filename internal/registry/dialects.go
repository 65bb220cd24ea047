package registry

import (
	"icc.tech/msgcore/internal/msg"
	"icc.tech/msgcore/internal/parser"
	"icc.tech/msgcore/internal/wire/memcache"
	"icc.tech/msgcore/internal/wire/peer"
	"icc.tech/msgcore/internal/wire/redis"
)

const kindDialect = "dialect"

// Dialect describes one wire dialect's bindings into a parser.Table:
// its request/response parse functions and, for request/response
// dialects that fragment, its split/coalesce hooks.
type Dialect struct {
	name string
	deps []string

	reqVariant, respVariant parser.Variant
	parseReq, parseResp     msg.ParseFunc

	// splitDialect is the msg.Dialect the hooks are filed under; zero
	// value for dialects (peer) that have no split/coalesce hooks.
	splitDialect msg.Dialect
	hasHooks     bool
	preSplit     msg.PreSplitCopyFunc
	postSplit    msg.SplitCopyFunc
}

func (d *Dialect) Name() string         { return d.name }
func (d *Dialect) Kind() string         { return kindDialect }
func (d *Dialect) Dependencies() []string { return d.deps }

// Bind registers this dialect's parse functions and hooks into table.
func (d *Dialect) Bind(table *parser.Table) {
	table.Register(d.reqVariant, d.parseReq)
	table.Register(d.respVariant, d.parseResp)
	if d.hasHooks {
		table.RegisterHooks(d.splitDialect, parser.SplitCoalesceHooks{
			PreSplit:  d.preSplit,
			PostSplit: d.postSplit,
		})
	}
}

// redisDialect, memcacheDialect and peerDialect are the three wire
// dialects this worker ships with. peer depends on nothing; redis and
// memcache are independent of each other and of peer, since internal
// mode's parser selection never falls through to the outer dialect's
// parse functions (only its split/coalesce hooks, which peer has
// none of).
func redisDialect() *Dialect {
	pre, post := redis.SplitHooks()
	return &Dialect{
		name:         "redis",
		reqVariant:   parser.RedisReq,
		respVariant:  parser.RedisResp,
		parseReq:     redis.ParseRequest,
		parseResp:    redis.ParseResponse,
		splitDialect: msg.DialectRedis,
		hasHooks:     true,
		preSplit:     pre,
		postSplit:    post,
	}
}

func memcacheDialect() *Dialect {
	pre, post := memcache.SplitHooks()
	return &Dialect{
		name:         "memcache",
		reqVariant:   parser.MemcacheReq,
		respVariant:  parser.MemcacheResp,
		parseReq:     memcache.ParseRequest,
		parseResp:    memcache.ParseResponse,
		splitDialect: msg.DialectMemcache,
		hasHooks:     true,
		preSplit:     pre,
		postSplit:    post,
	}
}

func peerDialect() *Dialect {
	return &Dialect{
		name:        "peer",
		reqVariant:  parser.InternalReq,
		respVariant: parser.InternalResp,
		parseReq:    peer.ParseRequest,
		parseResp:   peer.ParseResponse,
	}
}

// NewDefault returns a Registry pre-populated with the redis,
// memcache and peer dialects.
func NewDefault() (*Registry, error) {
	r := New()
	for _, d := range []*Dialect{redisDialect(), memcacheDialect(), peerDialect()} {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// BindAll binds every dialect entry in r, in dependency order, into
// table.
func BindAll(r *Registry, table *parser.Table) error {
	order, err := r.LoadOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		e, err := r.Get(name)
		if err != nil {
			return err
		}
		d, ok := e.(*Dialect)
		if !ok {
			continue
		}
		d.Bind(table)
	}
	return nil
}
