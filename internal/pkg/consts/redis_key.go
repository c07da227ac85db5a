package consts

const (
	DraftSessionKey   = "draft:session:"
	TokenBlacklistKey = "token:blacklist:"
)

const (
	DraftSubmitLock = "lock:draft:submit:"
)
