/*
Copyright (C) 2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package dispatch

// buildTable assembles the name -> command lookup used by Dispatch. Arity
// mirrors what COMMAND reports upstream: Min counts the command name itself.
func buildTable() map[string]*command {
	cmds := []*command{
		// connection
		{name: "PING", arity: Arity{Min: 1}, fn: cmdPing},
		{name: "ECHO", arity: Arity{Min: 2, Exact: true}, fn: cmdEcho},
		{name: "AUTH", arity: Arity{Min: 2}, fn: cmdAuth},
		{name: "HELLO", arity: Arity{Min: 1}, fn: cmdHello},
		{name: "SELECT", arity: Arity{Min: 2, Exact: true}, fn: cmdSelect},
		{name: "QUIT", arity: Arity{Min: 1, Exact: true}, fn: cmdQuit},
		{name: "CLIENT", arity: Arity{Min: 2}, flags: flagAdmin, fn: cmdClient},

		// strings
		{name: "GET", arity: Arity{Min: 2, Exact: true}, fn: cmdGet},
		{name: "SET", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdSet},
		{name: "SETNX", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdSetNX},
		{name: "SETEX", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdSetEX},
		{name: "PSETEX", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdPSetEX},
		{name: "GETSET", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdGetSet},
		{name: "MGET", arity: Arity{Min: 2}, fn: cmdMGet},
		{name: "MSET", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdMSet},
		{name: "APPEND", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdAppend},
		{name: "STRLEN", arity: Arity{Min: 2, Exact: true}, fn: cmdStrlen},
		{name: "GETRANGE", arity: Arity{Min: 4, Exact: true}, fn: cmdGetRange},
		{name: "SETRANGE", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdSetRange},
		{name: "INCR", arity: Arity{Min: 2, Exact: true}, flags: flagWrite, fn: cmdIncr},
		{name: "DECR", arity: Arity{Min: 2, Exact: true}, flags: flagWrite, fn: cmdDecr},
		{name: "INCRBY", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdIncrBy},
		{name: "DECRBY", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdDecrBy},
		{name: "INCRBYFLOAT", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdIncrByFloat},

		// generic
		{name: "DEL", arity: Arity{Min: 2}, flags: flagWrite, fn: cmdDel},
		{name: "UNLINK", arity: Arity{Min: 2}, flags: flagWrite, fn: cmdDel},
		{name: "EXISTS", arity: Arity{Min: 2}, fn: cmdExists},
		{name: "TYPE", arity: Arity{Min: 2, Exact: true}, fn: cmdType},
		{name: "KEYS", arity: Arity{Min: 2, Exact: true}, fn: cmdKeys},
		{name: "SCAN", arity: Arity{Min: 2}, fn: cmdScan},
		{name: "EXPIRE", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdExpire},
		{name: "PEXPIRE", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdPExpire},
		{name: "EXPIREAT", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdExpireAt},
		{name: "PEXPIREAT", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdPExpireAt},
		{name: "TTL", arity: Arity{Min: 2, Exact: true}, fn: cmdTTL},
		{name: "PTTL", arity: Arity{Min: 2, Exact: true}, fn: cmdPTTL},
		{name: "PERSIST", arity: Arity{Min: 2, Exact: true}, flags: flagWrite, fn: cmdPersist},
		{name: "RENAME", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdRename},
		{name: "RENAMENX", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdRenameNX},
		{name: "OBJECT", arity: Arity{Min: 2}, fn: cmdObject},
		{name: "DBSIZE", arity: Arity{Min: 1, Exact: true}, fn: cmdDBSize},
		{name: "FLUSHDB", arity: Arity{Min: 1}, flags: flagWrite, fn: cmdFlushDB},
		{name: "FLUSHALL", arity: Arity{Min: 1}, flags: flagWrite, fn: cmdFlushAll},

		// lists
		{name: "LPUSH", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdLPush},
		{name: "RPUSH", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdRPush},
		{name: "LPUSHX", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdLPushX},
		{name: "RPUSHX", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdRPushX},
		{name: "LPOP", arity: Arity{Min: 2}, flags: flagWrite, fn: cmdLPop},
		{name: "RPOP", arity: Arity{Min: 2}, flags: flagWrite, fn: cmdRPop},
		{name: "LLEN", arity: Arity{Min: 2, Exact: true}, fn: cmdLLen},
		{name: "LRANGE", arity: Arity{Min: 4, Exact: true}, fn: cmdLRange},
		{name: "LINDEX", arity: Arity{Min: 3, Exact: true}, fn: cmdLIndex},
		{name: "LSET", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdLSet},
		{name: "LTRIM", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdLTrim},
		{name: "LREM", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdLRem},
		{name: "RPOPLPUSH", arity: Arity{Min: 3, Exact: true}, flags: flagWrite, fn: cmdRPopLPush},
		{name: "BLPOP", arity: Arity{Min: 3}, flags: flagWrite | flagBlocking | flagNoScript, fn: cmdBLPop},
		{name: "BRPOP", arity: Arity{Min: 3}, flags: flagWrite | flagBlocking | flagNoScript, fn: cmdBRPop},

		// sets
		{name: "SADD", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdSAdd},
		{name: "SREM", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdSRem},
		{name: "SMEMBERS", arity: Arity{Min: 2, Exact: true}, fn: cmdSMembers},
		{name: "SISMEMBER", arity: Arity{Min: 3, Exact: true}, fn: cmdSIsMember},
		{name: "SCARD", arity: Arity{Min: 2, Exact: true}, fn: cmdSCard},
		{name: "SPOP", arity: Arity{Min: 2}, flags: flagWrite, fn: cmdSPop},
		{name: "SRANDMEMBER", arity: Arity{Min: 2}, fn: cmdSRandMember},
		{name: "SUNION", arity: Arity{Min: 2}, fn: cmdSUnion},
		{name: "SINTER", arity: Arity{Min: 2}, fn: cmdSInter},
		{name: "SDIFF", arity: Arity{Min: 2}, fn: cmdSDiff},
		{name: "SUNIONSTORE", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdSUnionStore},
		{name: "SINTERSTORE", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdSInterStore},
		{name: "SDIFFSTORE", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdSDiffStore},
		{name: "SSCAN", arity: Arity{Min: 3}, fn: cmdSScan},

		// hashes
		{name: "HSET", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdHSet},
		{name: "HMSET", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdHMSet},
		{name: "HGET", arity: Arity{Min: 3, Exact: true}, fn: cmdHGet},
		{name: "HDEL", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdHDel},
		{name: "HEXISTS", arity: Arity{Min: 3, Exact: true}, fn: cmdHExists},
		{name: "HLEN", arity: Arity{Min: 2, Exact: true}, fn: cmdHLen},
		{name: "HKEYS", arity: Arity{Min: 2, Exact: true}, fn: cmdHKeys},
		{name: "HVALS", arity: Arity{Min: 2, Exact: true}, fn: cmdHVals},
		{name: "HGETALL", arity: Arity{Min: 2, Exact: true}, fn: cmdHGetAll},
		{name: "HMGET", arity: Arity{Min: 3}, fn: cmdHMGet},
		{name: "HINCRBY", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdHIncrBy},
		{name: "HINCRBYFLOAT", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdHIncrByFloat},
		{name: "HSCAN", arity: Arity{Min: 3}, fn: cmdHScan},

		// sorted sets
		{name: "ZADD", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdZAdd},
		{name: "ZREM", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdZRem},
		{name: "ZSCORE", arity: Arity{Min: 3, Exact: true}, fn: cmdZScore},
		{name: "ZINCRBY", arity: Arity{Min: 4, Exact: true}, flags: flagWrite, fn: cmdZIncrBy},
		{name: "ZRANGE", arity: Arity{Min: 4}, fn: cmdZRange},
		{name: "ZREVRANGE", arity: Arity{Min: 4}, fn: cmdZRevRange},
		{name: "ZRANGEBYSCORE", arity: Arity{Min: 4}, fn: cmdZRangeByScore},
		{name: "ZRANGEBYLEX", arity: Arity{Min: 4}, fn: cmdZRangeByLex},
		{name: "ZRANK", arity: Arity{Min: 3, Exact: true}, fn: cmdZRank},
		{name: "ZREVRANK", arity: Arity{Min: 3, Exact: true}, fn: cmdZRevRank},
		{name: "ZCARD", arity: Arity{Min: 2, Exact: true}, fn: cmdZCard},
		{name: "ZCOUNT", arity: Arity{Min: 4, Exact: true}, fn: cmdZCount},
		{name: "ZUNIONSTORE", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdZUnionStore},
		{name: "ZINTERSTORE", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdZInterStore},
		{name: "ZSCAN", arity: Arity{Min: 3}, fn: cmdZScan},

		// streams
		{name: "XADD", arity: Arity{Min: 5}, flags: flagWrite, fn: cmdXAdd},
		{name: "XLEN", arity: Arity{Min: 2, Exact: true}, fn: cmdXLen},
		{name: "XRANGE", arity: Arity{Min: 4}, fn: cmdXRange},
		{name: "XREVRANGE", arity: Arity{Min: 4}, fn: cmdXRevRange},
		{name: "XTRIM", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdXTrim},
		{name: "XDEL", arity: Arity{Min: 3}, flags: flagWrite, fn: cmdXDel},
		{name: "XGROUP", arity: Arity{Min: 3}, flags: flagWrite | flagAdmin, fn: cmdXGroup},
		{name: "XREADGROUP", arity: Arity{Min: 7}, flags: flagWrite | flagNoScript, fn: cmdXReadGroup},
		{name: "XACK", arity: Arity{Min: 4}, flags: flagWrite, fn: cmdXAck},
		{name: "XPENDING", arity: Arity{Min: 3}, fn: cmdXPending},
		{name: "XCLAIM", arity: Arity{Min: 6}, flags: flagWrite, fn: cmdXClaim},

		// transactions
		{name: "MULTI", arity: Arity{Min: 1, Exact: true}, fn: cmdMulti},
		{name: "EXEC", arity: Arity{Min: 1, Exact: true}, fn: cmdExec},
		{name: "DISCARD", arity: Arity{Min: 1, Exact: true}, fn: cmdDiscard},
		{name: "WATCH", arity: Arity{Min: 2}, flags: flagNoScript, fn: cmdWatch},
		{name: "UNWATCH", arity: Arity{Min: 1, Exact: true}, fn: cmdUnwatch},

		// pub/sub
		{name: "PUBLISH", arity: Arity{Min: 3, Exact: true}, flags: flagPubSub, fn: cmdPublish},
		{name: "SUBSCRIBE", arity: Arity{Min: 2}, flags: flagPubSub | flagNoScript, fn: cmdSubscribe},
		{name: "UNSUBSCRIBE", arity: Arity{Min: 1}, flags: flagPubSub | flagNoScript, fn: cmdUnsubscribe},
		{name: "PSUBSCRIBE", arity: Arity{Min: 2}, flags: flagPubSub | flagNoScript, fn: cmdPSubscribe},
		{name: "PUNSUBSCRIBE", arity: Arity{Min: 1}, flags: flagPubSub | flagNoScript, fn: cmdPUnsubscribe},
		{name: "PUBSUB", arity: Arity{Min: 2}, flags: flagPubSub, fn: cmdPubSub},

		// server / admin
		{name: "INFO", arity: Arity{Min: 1}, fn: cmdInfo},
		{name: "CONFIG", arity: Arity{Min: 2}, flags: flagAdmin, fn: cmdConfig},
		{name: "COMMAND", arity: Arity{Min: 1}, fn: cmdCommand},
		{name: "DEBUG", arity: Arity{Min: 2}, flags: flagAdmin, fn: cmdDebug},
		{name: "MEMORY", arity: Arity{Min: 2}, fn: cmdMemory},
		{name: "LASTSAVE", arity: Arity{Min: 1, Exact: true}, fn: cmdLastSave},
		{name: "SAVE", arity: Arity{Min: 1, Exact: true}, flags: flagAdmin, fn: cmdSave},
		{name: "BGSAVE", arity: Arity{Min: 1}, flags: flagAdmin, fn: cmdBGSave},
		{name: "BGREWRITEAOF", arity: Arity{Min: 1, Exact: true}, flags: flagAdmin, fn: cmdBGRewriteAOF},

		// replication
		{name: "REPLICAOF", arity: Arity{Min: 3, Exact: true}, flags: flagAdmin, fn: cmdReplicaOf},
		{name: "SLAVEOF", arity: Arity{Min: 3, Exact: true}, flags: flagAdmin, fn: cmdReplicaOf},
		{name: "REPLCONF", arity: Arity{Min: 1}, flags: flagAdmin, fn: cmdReplConf},
		{name: "PSYNC", arity: Arity{Min: 3, Exact: true}, flags: flagAdmin, fn: cmdPSync},
		{name: "WAIT", arity: Arity{Min: 3, Exact: true}, fn: cmdWait},

		// scripting
		{name: "EVAL", arity: Arity{Min: 3}, flags: flagWrite | flagNoScript, fn: cmdEval},
		{name: "EVALSHA", arity: Arity{Min: 3}, flags: flagWrite | flagNoScript, fn: cmdEvalSHA},
		{name: "SCRIPT", arity: Arity{Min: 2}, flags: flagAdmin, fn: cmdScript},
	}

	table := make(map[string]*command, len(cmds)*2)
	for i := range cmds {
		table[cmds[i].name] = cmds[i]
	}
	return table
}
