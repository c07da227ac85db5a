// Package tagpicker 维护编辑中帖子的标签选择集合
//
// 目录加载与已选标签名称解析是两次独立的查询，完成顺序不确定；
// 两者都只合并名称，不会覆盖期间用户对选择集合的修改。
package tagpicker

import (
	"sort"
	"strings"
	"sync"
)

// Tag 目录中的一项
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Selection 已选标签（有序）+ 名称缓存 + 标签目录
type Selection struct {
	mu        sync.RWMutex
	ids       []string
	names     map[string]string
	directory []Tag
}

// NewSelection 按给定顺序初始化，重复 ID 只保留第一次出现
func NewSelection(ids ...string) *Selection {
	s := &Selection{names: make(map[string]string)}
	for _, id := range ids {
		s.addLocked(id)
	}
	return s
}

// Add 已存在时不做任何事
func (s *Selection) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(id)
}

func (s *Selection) addLocked(id string) bool {
	if id == "" || s.indexLocked(id) >= 0 {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Remove 不存在时不做任何事
func (s *Selection) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return true
}

func (s *Selection) indexLocked(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains 是否已选
func (s *Selection) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

// IDs 选择顺序的副本
func (s *Selection) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len 已选数量
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// LoadDirectory 替换目录并合并其中的名称，已选 ID 不受影响
func (s *Selection) LoadDirectory(tags []Tag) {
	dir := make([]Tag, len(tags))
	copy(dir, tags)
	sort.SliceStable(dir, func(i, j int) bool {
		return strings.ToLower(dir[i].Name) < strings.ToLower(dir[j].Name)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = dir
	s.mergeLocked(dir)
}

// MergeResolved 合并已选标签的名称解析结果
func (s *Selection) MergeResolved(tags []Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(tags)
}

func (s *Selection) mergeLocked(tags []Tag) {
	if s.names == nil {
		s.names = make(map[string]string)
	}
	for _, t := range tags {
		if t.ID != "" && t.Name != "" {
			s.names[t.ID] = t.Name
		}
	}
}

// DirectoryLoaded 目录是否已经加载
func (s *Selection) DirectoryLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.directory != nil
}

// Filter 在未选中的目录项里按名称做大小写不敏感的子串匹配
func (s *Selection) Filter(query string) []Tag {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tag, 0, len(s.directory))
	for _, t := range s.directory {
		if s.indexLocked(t.ID) >= 0 {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Chips 已选标签及其显示名，名称未解析时退回 ID
func (s *Selection) Chips() []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tag, 0, len(s.ids))
	for _, id := range s.ids {
		name, ok := s.names[id]
		if !ok {
			name = id
		}
		out = append(out, Tag{ID: id, Name: name})
	}
	return out
}

// Names 已解析的名称副本，用于持久化
func (s *Selection) Names() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}
