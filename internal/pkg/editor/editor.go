// Package editor 富文本编辑器的服务端实现
//
// 文档由块组成，每个块内是带样式的文本片段。所有修改都以事务方式执行：
// 修改成功后压入撤销栈并触发 onChange；失败或无变化时文档保持原样。
package editor

import (
	"errors"
	"net/url"
	"strings"
)

const defaultHistorySize = 100

// 工具栏状态名，与前端按钮一一对应
const (
	ActiveBold        = "bold"
	ActiveItalic      = "italic"
	ActiveLink        = "link"
	ActiveBulletList  = "bulletList"
	ActiveOrderedList = "orderedList"
	ActiveBlockquote  = "blockquote"
	ActiveHeading     = "heading"
	ActiveImage       = "image"
)

var ErrInvalidLink = errors.New("链接地址不合法")

// Selection 单块内的选区，Start == End 时为光标
type Selection struct {
	Block int `json:"block"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Collapsed 是否为光标
func (s Selection) Collapsed() bool {
	return s.Start == s.End
}

type Option func(*Editor)

// WithHistorySize 撤销栈深度
func WithHistorySize(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.historySize = n
		}
	}
}

// WithOnChange 每次编辑事务完成后回调最新 HTML
func WithOnChange(fn func(html string)) Option {
	return func(e *Editor) {
		e.onChange = fn
	}
}

type Editor struct {
	doc         []Block
	sel         Selection
	pending     *Marks
	undo        [][]Block
	redo        [][]Block
	historySize int
	onChange    func(string)
}

// New 以给定 HTML 作为初始内容，光标放在文档末尾
func New(content string, opts ...Option) (*Editor, error) {
	blocks, err := Parse(content)
	if err != nil {
		return nil, err
	}
	e := &Editor{doc: blocks, historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(e)
	}
	e.ensureBlock()
	e.moveToEnd()
	return e, nil
}

// OnChange 替换回调
func (e *Editor) OnChange(fn func(html string)) {
	e.onChange = fn
}

// HTML 当前内容
func (e *Editor) HTML() string {
	if e.isEmpty() {
		return ""
	}
	return Render(e.doc)
}

// Blocks 文档副本
func (e *Editor) Blocks() []Block {
	return cloneBlocks(e.doc)
}

// Selection 当前选区
func (e *Editor) Selection() Selection {
	return e.sel
}

// Select 设置选区，越界值会被收敛到合法范围
func (e *Editor) Select(block, start, end int) Selection {
	if block < 0 {
		block = 0
	}
	if block >= len(e.doc) {
		block = len(e.doc) - 1
	}
	n := e.doc[block].Len()
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if start > end {
		start, end = end, start
	}
	e.sel = Selection{Block: block, Start: start, End: end}
	e.pending = nil
	return e.sel
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// transact 执行一次编辑事务，fn 返回 false 时回滚
func (e *Editor) transact(fn func() bool) bool {
	before := cloneBlocks(e.doc)
	beforeSel := e.sel
	beforeHTML := Render(before)

	if !fn() {
		e.doc = before
		e.sel = beforeSel
		return false
	}
	e.ensureBlock()
	if Render(e.doc) == beforeHTML {
		return false
	}

	e.undo = append(e.undo, before)
	if len(e.undo) > e.historySize {
		e.undo = e.undo[len(e.undo)-e.historySize:]
	}
	e.redo = nil
	e.emit()
	return true
}

func (e *Editor) emit() {
	if e.onChange != nil {
		e.onChange(e.HTML())
	}
}

// ensureBlock 文档至少保留一个空段落，光标才有落点
func (e *Editor) ensureBlock() {
	if len(e.doc) == 0 {
		e.doc = []Block{{Kind: KindParagraph}}
		e.sel = Selection{}
	}
}

func (e *Editor) isEmpty() bool {
	return len(e.doc) == 1 && e.doc[0].Kind == KindParagraph && e.doc[0].Len() == 0
}

func (e *Editor) moveToEnd() {
	last := len(e.doc) - 1
	n := e.doc[last].Len()
	e.sel = Selection{Block: last, Start: n, End: n}
}

func (e *Editor) current() *Block {
	return &e.doc[e.sel.Block]
}

// SetContent 整体替换内容
func (e *Editor) SetContent(content string) error {
	blocks, err := Parse(content)
	if err != nil {
		return err
	}
	e.transact(func() bool {
		e.doc = blocks
		e.ensureBlock()
		e.moveToEnd()
		return true
	})
	return nil
}

// ToggleBold 切换粗体
func (e *Editor) ToggleBold() bool {
	return e.toggleMark(func(m *Marks) *bool { return &m.Bold })
}

// ToggleItalic 切换斜体
func (e *Editor) ToggleItalic() bool {
	return e.toggleMark(func(m *Marks) *bool { return &m.Italic })
}

// toggleMark 选区内全部带该样式时移除，否则全部加上；光标状态下只影响后续输入
func (e *Editor) toggleMark(field func(*Marks) *bool) bool {
	if !isTextBlock(e.current().Kind) {
		return false
	}
	if e.sel.Collapsed() {
		m := e.cursorMarks()
		f := field(&m)
		*f = !*f
		e.pending = &m
		return true
	}
	return e.transact(func() bool {
		b := e.current()
		runes, marks := explode(b.Spans)
		all := true
		for i := e.sel.Start; i < e.sel.End; i++ {
			if !*field(&marks[i]) {
				all = false
				break
			}
		}
		for i := e.sel.Start; i < e.sel.End; i++ {
			*field(&marks[i]) = !all
		}
		b.Spans = implode(runes, marks)
		return true
	})
}

// cursorMarks 光标处的样式：优先待生效样式，否则继承前一个字符（链接不继承）
func (e *Editor) cursorMarks() Marks {
	if e.pending != nil {
		return *e.pending
	}
	_, marks := explode(e.current().Spans)
	if len(marks) == 0 {
		return Marks{}
	}
	i := e.sel.Start - 1
	if i < 0 {
		i = 0
	}
	m := marks[i]
	m.Link = ""
	return m
}

// ToggleBulletList 切换无序列表
func (e *Editor) ToggleBulletList() bool {
	return e.toggleBlock(KindBulletItem)
}

// ToggleOrderedList 切换有序列表
func (e *Editor) ToggleOrderedList() bool {
	return e.toggleBlock(KindOrderedItem)
}

// ToggleBlockquote 切换引用
func (e *Editor) ToggleBlockquote() bool {
	return e.toggleBlock(KindBlockquote)
}

// SetHeading 设为标题，level 为 0 时恢复为段落
func (e *Editor) SetHeading(level int) bool {
	return e.transact(func() bool {
		b := e.current()
		if !isTextBlock(b.Kind) {
			return false
		}
		if level <= 0 {
			b.Kind, b.Level = KindParagraph, 0
			return true
		}
		b.Kind, b.Level = KindHeading, headingLevel(level)
		return true
	})
}

func (e *Editor) toggleBlock(target Kind) bool {
	return e.transact(func() bool {
		b := e.current()
		if !isTextBlock(b.Kind) {
			return false
		}
		if b.Kind == target {
			b.Kind = KindParagraph
		} else {
			b.Kind = target
		}
		b.Level = 0
		return true
	})
}

// SetLink 给选区加链接；href 为空视为取消输入，不做任何修改
func (e *Editor) SetLink(href string) (bool, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return false, nil
	}
	if !validLink(href) {
		return false, ErrInvalidLink
	}
	if e.sel.Collapsed() || !isTextBlock(e.current().Kind) {
		return false, nil
	}
	return e.transact(func() bool {
		b := e.current()
		runes, marks := explode(b.Spans)
		for i := e.sel.Start; i < e.sel.End; i++ {
			marks[i].Link = href
		}
		b.Spans = implode(runes, marks)
		return true
	}), nil
}

// UnsetLink 移除选区上的链接
func (e *Editor) UnsetLink() bool {
	if e.sel.Collapsed() || !isTextBlock(e.current().Kind) {
		return false
	}
	return e.transact(func() bool {
		b := e.current()
		runes, marks := explode(b.Spans)
		for i := e.sel.Start; i < e.sel.End; i++ {
			marks[i].Link = ""
		}
		b.Spans = implode(runes, marks)
		return true
	})
}

func validLink(href string) bool {
	if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return u.Opaque != "" || u.Path != ""
	}
	return false
}

// InsertText 在光标处输入文本，有选区时先替换选区；换行会拆出新块
func (e *Editor) InsertText(text string) bool {
	if text == "" {
		return false
	}
	return e.transact(func() bool {
		if !isTextBlock(e.current().Kind) {
			e.insertBlockAfter(Block{Kind: KindParagraph})
		}
		m := e.cursorMarks()
		e.deleteSelection()

		lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
		for i, line := range lines {
			if i > 0 {
				e.splitBlock()
			}
			e.insertRunes([]rune(line), m)
		}
		e.pending = nil
		return true
	})
}

func (e *Editor) insertRunes(rs []rune, m Marks) {
	if len(rs) == 0 {
		return
	}
	b := e.current()
	runes, marks := explode(b.Spans)
	at := e.sel.Start

	newRunes := make([]rune, 0, len(runes)+len(rs))
	newMarks := make([]Marks, 0, len(runes)+len(rs))
	newRunes = append(newRunes, runes[:at]...)
	newMarks = append(newMarks, marks[:at]...)
	for _, r := range rs {
		newRunes = append(newRunes, r)
		newMarks = append(newMarks, m)
	}
	newRunes = append(newRunes, runes[at:]...)
	newMarks = append(newMarks, marks[at:]...)

	b.Spans = implode(newRunes, newMarks)
	e.sel.Start += len(rs)
	e.sel.End = e.sel.Start
}

// deleteSelection 删除选区内文本，光标落在选区起点
func (e *Editor) deleteSelection() {
	if e.sel.Collapsed() {
		return
	}
	b := e.current()
	runes, marks := explode(b.Spans)
	runes = append(runes[:e.sel.Start:e.sel.Start], runes[e.sel.End:]...)
	marks = append(marks[:e.sel.Start:e.sel.Start], marks[e.sel.End:]...)
	b.Spans = implode(runes, marks)
	e.sel.End = e.sel.Start
}

// splitBlock 在光标处拆块，后半部分沿用块类型（标题拆出的是段落）
func (e *Editor) splitBlock() {
	b := e.current()
	head, tail := splitSpans(b.Spans, e.sel.Start)
	kind := b.Kind
	if kind == KindHeading {
		kind = KindParagraph
	}
	b.Spans = head
	e.insertBlockAfter(Block{Kind: kind, Spans: tail})
}

// insertBlockAfter 在当前块后插入新块并把光标移到新块开头
func (e *Editor) insertBlockAfter(nb Block) {
	at := e.sel.Block + 1
	e.doc = append(e.doc, Block{})
	copy(e.doc[at+1:], e.doc[at:])
	e.doc[at] = nb
	e.sel = Selection{Block: at}
}

// Delete 有选区时删除选区，否则删除光标前一个字符；在块首时与前一块合并
func (e *Editor) Delete() bool {
	return e.transact(func() bool {
		if !e.sel.Collapsed() {
			e.deleteSelection()
			return true
		}
		b := e.current()
		if b.Kind == KindImage {
			e.removeCurrentBlock()
			return true
		}
		if e.sel.Start > 0 {
			runes, marks := explode(b.Spans)
			at := e.sel.Start - 1
			runes = append(runes[:at:at], runes[at+1:]...)
			marks = append(marks[:at:at], marks[at+1:]...)
			b.Spans = implode(runes, marks)
			e.sel.Start, e.sel.End = at, at
			return true
		}
		if e.sel.Block == 0 {
			if b.Kind != KindParagraph {
				b.Kind, b.Level = KindParagraph, 0
				return true
			}
			return false
		}
		prev := &e.doc[e.sel.Block-1]
		if prev.Kind == KindImage {
			e.doc = append(e.doc[:e.sel.Block-1], e.doc[e.sel.Block:]...)
			e.sel.Block--
			return true
		}
		joinAt := prev.Len()
		prev.Spans = normalize(append(prev.Spans, b.Spans...))
		e.doc = append(e.doc[:e.sel.Block], e.doc[e.sel.Block+1:]...)
		e.sel = Selection{Block: e.sel.Block - 1, Start: joinAt, End: joinAt}
		return true
	})
}

func (e *Editor) removeCurrentBlock() {
	i := e.sel.Block
	e.doc = append(e.doc[:i], e.doc[i+1:]...)
	if len(e.doc) == 0 {
		e.ensureBlock()
		return
	}
	if i >= len(e.doc) {
		i = len(e.doc) - 1
	}
	n := e.doc[i].Len()
	e.sel = Selection{Block: i, Start: n, End: n}
}

// InsertImageURL 在光标处插入图片块，当前块会在光标处被拆开；空段落直接被图片替换
func (e *Editor) InsertImageURL(src, alt string) bool {
	src = strings.TrimSpace(src)
	if src == "" || !validLink(src) {
		return false
	}
	return e.transact(func() bool {
		img := Block{Kind: KindImage, Src: src, Alt: alt}
		b := e.current()
		if !isTextBlock(b.Kind) {
			e.insertBlockAfter(img)
			return true
		}

		e.deleteSelection()
		head, tail := splitSpans(b.Spans, e.sel.Start)
		i := e.sel.Block

		var replacement []Block
		if len(head) > 0 {
			h := b.clone()
			h.Spans = head
			replacement = append(replacement, h)
		}
		replacement = append(replacement, img)
		imgAt := i + len(replacement) - 1
		if len(tail) > 0 {
			t := b.clone()
			t.Spans = tail
			if t.Kind == KindHeading {
				t.Kind, t.Level = KindParagraph, 0
			}
			replacement = append(replacement, t)
		}

		rest := append(replacement, e.doc[i+1:]...)
		e.doc = append(e.doc[:i], rest...)
		if len(tail) > 0 {
			e.sel = Selection{Block: imgAt + 1}
		} else {
			e.sel = Selection{Block: imgAt}
		}
		return true
	})
}

// IsActive 光标上下文中某个工具栏状态是否激活
func (e *Editor) IsActive(name string) bool {
	b := e.current()
	switch name {
	case ActiveBulletList:
		return b.Kind == KindBulletItem
	case ActiveOrderedList:
		return b.Kind == KindOrderedItem
	case ActiveBlockquote:
		return b.Kind == KindBlockquote
	case ActiveHeading:
		return b.Kind == KindHeading
	case ActiveImage:
		return b.Kind == KindImage
	}

	var check func(Marks) bool
	switch name {
	case ActiveBold:
		check = func(m Marks) bool { return m.Bold }
	case ActiveItalic:
		check = func(m Marks) bool { return m.Italic }
	case ActiveLink:
		check = func(m Marks) bool { return m.Link != "" }
	default:
		return false
	}

	if !isTextBlock(b.Kind) {
		return false
	}
	if e.sel.Collapsed() {
		if name == ActiveLink {
			_, marks := explode(b.Spans)
			if e.sel.Start > 0 && e.sel.Start <= len(marks) {
				return marks[e.sel.Start-1].Link != ""
			}
			return false
		}
		return check(e.cursorMarks())
	}
	_, marks := explode(b.Spans)
	for i := e.sel.Start; i < e.sel.End; i++ {
		if !check(marks[i]) {
			return false
		}
	}
	return true
}

// ActiveStates 所有工具栏状态
func (e *Editor) ActiveStates() map[string]bool {
	names := []string{ActiveBold, ActiveItalic, ActiveLink, ActiveBulletList, ActiveOrderedList, ActiveBlockquote, ActiveHeading, ActiveImage}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = e.IsActive(n)
	}
	return out
}
