package editor

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const linkAttrs = ` target="_blank" rel="noopener noreferrer nofollow"`

// Render 序列化为 HTML，相邻列表项合并进同一个 ul/ol，相邻引用块合并进同一个 blockquote
func Render(blocks []Block) string {
	var sb strings.Builder
	for i := 0; i < len(blocks); {
		b := blocks[i]
		switch b.Kind {
		case KindBulletItem, KindOrderedItem:
			tag := "ul"
			if b.Kind == KindOrderedItem {
				tag = "ol"
			}
			sb.WriteString("<" + tag + ">")
			for ; i < len(blocks) && blocks[i].Kind == b.Kind; i++ {
				sb.WriteString("<li><p>")
				renderSpans(&sb, blocks[i].Spans)
				sb.WriteString("</p></li>")
			}
			sb.WriteString("</" + tag + ">")
		case KindBlockquote:
			sb.WriteString("<blockquote>")
			for ; i < len(blocks) && blocks[i].Kind == KindBlockquote; i++ {
				sb.WriteString("<p>")
				renderSpans(&sb, blocks[i].Spans)
				sb.WriteString("</p>")
			}
			sb.WriteString("</blockquote>")
		case KindHeading:
			tag := "h" + strconv.Itoa(headingLevel(b.Level))
			sb.WriteString("<" + tag + ">")
			renderSpans(&sb, b.Spans)
			sb.WriteString("</" + tag + ">")
			i++
		case KindImage:
			sb.WriteString(`<img src="` + html.EscapeString(b.Src) + `"`)
			if b.Alt != "" {
				sb.WriteString(` alt="` + html.EscapeString(b.Alt) + `"`)
			}
			sb.WriteString(">")
			i++
		default:
			sb.WriteString("<p>")
			renderSpans(&sb, b.Spans)
			sb.WriteString("</p>")
			i++
		}
	}
	return sb.String()
}

// renderSpans 同一链接的连续 span 共用一个 <a>
func renderSpans(sb *strings.Builder, spans []Span) {
	for i := 0; i < len(spans); {
		link := spans[i].Link
		if link != "" {
			sb.WriteString(`<a href="` + html.EscapeString(link) + `"` + linkAttrs + `>`)
		}
		for ; i < len(spans) && spans[i].Link == link; i++ {
			s := spans[i]
			if s.Bold {
				sb.WriteString("<strong>")
			}
			if s.Italic {
				sb.WriteString("<em>")
			}
			sb.WriteString(html.EscapeString(s.Text))
			if s.Italic {
				sb.WriteString("</em>")
			}
			if s.Bold {
				sb.WriteString("</strong>")
			}
		}
		if link != "" {
			sb.WriteString("</a>")
		}
	}
}

func headingLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

// PlainText 去掉标记后的文本，块之间用换行分隔
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if t := strings.TrimSpace(b.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
