package consts

const (
	MimePrefixImage = "image"
)

const (
	RoleAdmin  = "ADMIN"
	RoleAuthor = "AUTHOR"
)

const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	RecentPostsLimit = 5
)

const (
	MaxImageSize = 10 << 20
)
