package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk 分块结果
type Chunk struct {
	Content    string
	Index      int     // 全文档内的分块序号，从 0 开始
	Page       *int    // 来源页码，无页码概念时为 nil
	Section    string  // 所在章节标题（Markdown）
	TokenCount int
}

// Chunker 文档分块器，按句子边界切分并保留相邻重叠
type Chunker struct {
	ChunkSize    int // 分块大小（字符数）
	ChunkOverlap int // 重叠大小（字符数）

	encoder *tiktoken.Tiktoken
}

// NewChunker 创建分块器
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}

	// 编码器加载失败时退回字符数估算
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoder = nil
	}

	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		encoder:      encoder,
	}
}

// ChunkPages 对解析出的页逐页分块，分块不跨页
func (c *Chunker) ChunkPages(pages []Page) []Chunk {
	var chunks []Chunk
	index := 0
	for _, page := range pages {
		var pageNo *int
		if page.Number > 0 {
			n := page.Number
			pageNo = &n
		}
		for _, section := range splitSections(page.Text) {
			for _, content := range c.chunkText(section.body) {
				chunks = append(chunks, Chunk{
					Content:    content,
					Index:      index,
					Page:       pageNo,
					Section:    section.heading,
					TokenCount: c.countTokens(content),
				})
				index++
			}
		}
	}
	return chunks
}

// chunkText 把一段文本按句子聚合成不超过 ChunkSize 的块
func (c *Chunker) chunkText(text string) []string {
	text = normalizeText(text)
	if text == "" {
		return nil
	}
	sentences := splitSentences(text)

	var chunks []string
	current := ""
	for _, sentence := range sentences {
		if current != "" && utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence)+1 > c.ChunkSize {
			chunks = append(chunks, current)
			current = c.overlapTail(current)
		}
		if current != "" {
			current += " "
		}
		current += sentence
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// overlapTail 取上一块末尾的重叠文本，尽量从完整词开始
func (c *Chunker) overlapTail(text string) string {
	if c.ChunkOverlap == 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= c.ChunkOverlap {
		return ""
	}
	overlap := string(runes[len(runes)-c.ChunkOverlap:])
	if idx := strings.Index(overlap, " "); idx > 0 {
		overlap = overlap[idx+1:]
	}
	return overlap
}

func (c *Chunker) countTokens(text string) int {
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	// 近似：中文按字符数/1.5，英文按单词数
	words := len(strings.Fields(text))
	chinese := 0
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FA5 {
			chinese++
		}
	}
	return words + chinese*2/3
}

type section struct {
	heading string
	body    string
}

// splitSections 按 Markdown 标题切分文本，非 Markdown 文本整体为一节
func splitSections(text string) []section {
	var sections []section
	current := section{}
	flush := func() {
		if strings.TrimSpace(current.body) != "" {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if heading != "" {
				flush()
				current = section{heading: heading}
				continue
			}
		}
		current.body += line + "\n"
	}
	flush()

	if len(sections) == 0 {
		return []section{{body: text}}
	}
	return sections
}

// normalizeText 压缩空白
func normalizeText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// splitSentences 按句号、问号、感叹号切分，跳过小数点
func splitSentences(text string) []string {
	var sentences []string
	current := strings.Builder{}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' || r == '!' || r == '?' || r == '.' {
			if r == '.' && i+1 < len(runes) && runes[i+1] >= '0' && runes[i+1] <= '9' {
				continue
			}
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
