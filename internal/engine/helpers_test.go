package engine

import (
	"icc.tech/msgcore/internal/core"
	"icc.tech/msgcore/internal/msg"
	"icc.tech/msgcore/internal/parser"
	"icc.tech/msgcore/internal/wire/memcache"
	"icc.tech/msgcore/internal/wire/peer"
	"icc.tech/msgcore/internal/wire/redis"
)

func newTestWorker() *core.Worker {
	table := parser.NewTable()
	table.Register(parser.RedisReq, redis.ParseRequest)
	table.Register(parser.RedisResp, redis.ParseResponse)
	table.Register(parser.MemcacheReq, memcache.ParseRequest)
	table.Register(parser.MemcacheResp, memcache.ParseResponse)
	table.Register(parser.InternalReq, peer.ParseRequest)
	table.Register(parser.InternalResp, peer.ParseResponse)

	preR, postR := redis.SplitHooks()
	table.RegisterHooks(msg.DialectRedis, parser.SplitCoalesceHooks{PreSplit: preR, PostSplit: postR})
	preM, postM := memcache.SplitHooks()
	table.RegisterHooks(msg.DialectMemcache, parser.SplitCoalesceHooks{PreSplit: preM, PostSplit: postM})

	cfg := &core.Config{
		MBufCap:          512,
		MaxAllocMsgs:     64,
		AllowedAllocMsgs: 32,
		MaxAllocMbufs:    64,
		IOVMaxCap:        128,
	}
	var tick int64 = 1000
	return core.New(cfg, table, func() int64 { return tick })
}
