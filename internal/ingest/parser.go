package ingest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"
)

// Page 解析出的一页文本，Number 为 0 表示无页码概念
type Page struct {
	Number int
	Text   string
}

// Parser 文档解析器接口
type Parser interface {
	Parse(content []byte) ([]Page, error)
	SupportedTypes() []string
}

// ParserRegistry 按内容类型分发解析器
type ParserRegistry struct {
	parsers map[string]Parser
}

// NewParserRegistry 创建解析器注册表，内置常用类型
func NewParserRegistry() *ParserRegistry {
	registry := &ParserRegistry{parsers: make(map[string]Parser)}
	registry.Register(NewTextParser())
	registry.Register(NewHTMLParser())
	registry.Register(NewPDFParser())
	return registry
}

// Register 注册解析器
func (r *ParserRegistry) Register(parser Parser) {
	for _, t := range parser.SupportedTypes() {
		r.parsers[t] = parser
	}
}

// Parse 解析文档内容
func (r *ParserRegistry) Parse(contentType string, content []byte) ([]Page, error) {
	// 去掉 charset 等参数
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	parser, ok := r.parsers[contentType]
	if !ok {
		return nil, fmt.Errorf("不支持的内容类型: %s", contentType)
	}
	return parser.Parse(content)
}

// TextParser 纯文本与 Markdown 解析器
type TextParser struct{}

// NewTextParser 创建纯文本解析器
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse 解析纯文本
func (p *TextParser) Parse(content []byte) ([]Page, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("无效的 UTF-8 编码")
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, fmt.Errorf("文档内容为空")
	}
	return []Page{{Text: text}}, nil
}

// SupportedTypes 支持的类型
func (p *TextParser) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown"}
}

// HTMLParser 提取 HTML 的可见文本
type HTMLParser struct{}

var (
	htmlTagRe    = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>|<[^>]+>`)
	htmlSpacesRe = regexp.MustCompile(`\s+`)
)

// NewHTMLParser 创建 HTML 解析器
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse 去除标签与脚本，保留正文
func (p *HTMLParser) Parse(content []byte) ([]Page, error) {
	text := htmlTagRe.ReplaceAllString(string(content), " ")
	text = htmlSpacesRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("HTML 没有可见文本")
	}
	return []Page{{Text: text}}, nil
}

// SupportedTypes 支持的类型
func (p *HTMLParser) SupportedTypes() []string {
	return []string{"text/html"}
}

// PDFParser PDF 解析器，逐页提取文本
type PDFParser struct{}

// NewPDFParser 创建 PDF 解析器
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse 解析 PDF，解析失败的页跳过
func (p *PDFParser) Parse(content []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("打开 PDF 失败: %w", err)
	}

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("PDF 内容为空或无法解析文本")
	}
	return pages, nil
}

// SupportedTypes 支持的类型
func (p *PDFParser) SupportedTypes() []string {
	return []string{"application/pdf"}
}
