package editor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse 把 HTML 解析成块列表，不认识的容器标签只保留其内容
func Parse(src string) ([]Block, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	p := &parser{}
	for _, body := range doc.Find("body").Nodes {
		p.container(body, KindParagraph)
	}
	p.flushLoose()
	return p.blocks, nil
}

type parser struct {
	blocks []Block
	// 顶层散落的行内节点先攒起来，遇到块级节点时合成一个段落
	loose []*html.Node
}

func (p *parser) container(n *html.Node, kind Kind) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.node(c, kind)
	}
}

func (p *parser) node(n *html.Node, kind Kind) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" && len(p.loose) == 0 {
			return
		}
		p.loose = append(p.loose, n)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.P:
		p.flushLoose()
		p.textBlock(Block{Kind: kind}, n)
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		p.flushLoose()
		level := int(n.Data[1] - '0')
		p.textBlock(Block{Kind: KindHeading, Level: level}, n)
	case atom.Ul, atom.Ol:
		p.flushLoose()
		item := KindBulletItem
		if n.DataAtom == atom.Ol {
			item = KindOrderedItem
		}
		p.list(n, item)
	case atom.Blockquote:
		p.flushLoose()
		p.container(n, KindBlockquote)
		p.flushLooseAs(KindBlockquote)
	case atom.Img:
		p.flushLoose()
		if img, ok := imageBlock(n); ok {
			p.blocks = append(p.blocks, img)
		}
	case atom.Br:
		p.flushLoose()
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer, atom.Figure:
		p.flushLoose()
		p.container(n, kind)
		p.flushLooseAs(kind)
	default:
		p.loose = append(p.loose, n)
	}
}

func (p *parser) list(n *html.Node, item Kind) {
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode {
			continue
		}
		if li.DataAtom != atom.Li {
			p.node(li, item)
			continue
		}
		hasBlockChild := false
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.P || c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				hasBlockChild = true
				break
			}
		}
		if hasBlockChild {
			p.container(li, item)
			p.flushLooseAs(item)
			continue
		}
		p.textBlock(Block{Kind: item}, li)
	}
}

func (p *parser) flushLoose() {
	p.flushLooseAs(KindParagraph)
}

func (p *parser) flushLooseAs(kind Kind) {
	if len(p.loose) == 0 {
		return
	}
	nodes := p.loose
	p.loose = nil

	b := Block{Kind: kind}
	var spans []Span
	for _, n := range nodes {
		spans = p.inline(n, Marks{}, spans, &b)
	}
	b.Spans = normalize(spans)
	if strings.TrimSpace(b.Text()) != "" {
		p.blocks = append(p.blocks, b)
	}
}

// textBlock 解析 n 的行内内容作为一个块，行内图片会把块拆开
func (p *parser) textBlock(b Block, n *html.Node) {
	before := len(p.blocks)
	var spans []Span
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		spans = p.inline(c, Marks{}, spans, &b)
	}
	b.Spans = normalize(spans)
	// 被拆开过的块，尾部为空时不再补一个空段落
	if len(p.blocks) > before && b.Len() == 0 {
		return
	}
	p.blocks = append(p.blocks, b)
}

func (p *parser) inline(n *html.Node, m Marks, spans []Span, cur *Block) []Span {
	switch n.Type {
	case html.TextNode:
		return append(spans, Span{Text: n.Data, Marks: m})
	case html.ElementNode:
	default:
		return spans
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		m.Bold = true
	case atom.Em, atom.I:
		m.Italic = true
	case atom.A:
		// 不合法的链接只保留文字
		m.Link = ""
		if href := strings.TrimSpace(attr(n, "href")); validLink(href) {
			m.Link = href
		}
	case atom.Img, atom.Br:
		// 先把已有内容落成块，再接着解析
		head := *cur
		head.Spans = normalize(spans)
		if head.Len() > 0 {
			p.blocks = append(p.blocks, head)
		}
		if n.DataAtom == atom.Img {
			if img, ok := imageBlock(n); ok {
				p.blocks = append(p.blocks, img)
			}
		}
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		spans = p.inline(c, m, spans, cur)
	}
	return spans
}

// imageBlock 地址不合法的图片整块丢弃
func imageBlock(n *html.Node) (Block, bool) {
	src := strings.TrimSpace(attr(n, "src"))
	if !validLink(src) {
		return Block{}, false
	}
	return Block{Kind: KindImage, Src: src, Alt: attr(n, "alt")}, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
