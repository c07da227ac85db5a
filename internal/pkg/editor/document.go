package editor

// Kind 块类型
type Kind string

const (
	KindParagraph   Kind = "paragraph"
	KindHeading     Kind = "heading"
	KindBulletItem  Kind = "bullet_item"
	KindOrderedItem Kind = "ordered_item"
	KindBlockquote  Kind = "blockquote"
	KindImage       Kind = "image"
)

// Marks 行内样式
type Marks struct {
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
	Link   string `json:"link,omitempty"`
}

// Span 一段样式相同的文本
type Span struct {
	Text string `json:"text"`
	Marks
}

// Block 文档的一个块，图片块没有文本
type Block struct {
	Kind  Kind   `json:"kind"`
	Level int    `json:"level,omitempty"`
	Spans []Span `json:"spans,omitempty"`
	Src   string `json:"src,omitempty"`
	Alt   string `json:"alt,omitempty"`
}

// Len 块内文本的 rune 数
func (b Block) Len() int {
	n := 0
	for _, s := range b.Spans {
		n += len([]rune(s.Text))
	}
	return n
}

// Text 块的纯文本
func (b Block) Text() string {
	var out []rune
	for _, s := range b.Spans {
		out = append(out, []rune(s.Text)...)
	}
	return string(out)
}

func (b Block) clone() Block {
	cp := b
	if b.Spans != nil {
		cp.Spans = make([]Span, len(b.Spans))
		copy(cp.Spans, b.Spans)
	}
	return cp
}

func cloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.clone()
	}
	return out
}

// explode 把 spans 展开成逐字符的文本与样式，便于按区间修改
func explode(spans []Span) ([]rune, []Marks) {
	var runes []rune
	var marks []Marks
	for _, s := range spans {
		for _, r := range s.Text {
			runes = append(runes, r)
			marks = append(marks, s.Marks)
		}
	}
	return runes, marks
}

// implode 是 explode 的逆过程，相邻同样式的字符合并为一个 span
func implode(runes []rune, marks []Marks) []Span {
	var spans []Span
	for i, r := range runes {
		if n := len(spans); n > 0 && spans[n-1].Marks == marks[i] {
			spans[n-1].Text += string(r)
			continue
		}
		spans = append(spans, Span{Text: string(r), Marks: marks[i]})
	}
	return spans
}

// normalize 合并相邻同样式 span 并去掉空 span
func normalize(spans []Span) []Span {
	return implode(explode(spans))
}

// splitSpans 在 rune 偏移 at 处把 spans 切成两半
func splitSpans(spans []Span, at int) ([]Span, []Span) {
	runes, marks := explode(spans)
	if at < 0 {
		at = 0
	}
	if at > len(runes) {
		at = len(runes)
	}
	return implode(runes[:at], marks[:at]), implode(runes[at:], marks[at:])
}

func isTextBlock(k Kind) bool {
	return k != KindImage
}
