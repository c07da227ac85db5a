package model

// All 需要自动迁移的表
func All() []any {
	return []any{
		&Category{},
		&Tag{},
		&Post{},
		&PostTag{},
	}
}
