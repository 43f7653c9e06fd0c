package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/docreview/pkg/models"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Parse turns raw Markdown text into a structural Document. It never
// fails: malformed input degrades to fewer detected sections.
func Parse(source, filePath string) *models.Document {
	doc := &models.Document{FilePath: filePath}

	frontMatter, body := splitFrontMatter(source)
	doc.FrontMatter = frontMatter

	src := []byte(body)
	lines := lineOffsets(src)
	root := md.Parser().Parse(text.NewReader(src))

	b := &builder{doc: doc, src: src, lineStarts: lines, seenPaths: map[string]int{}}
	b.walk(root)
	b.closeSection(b.lineCount())

	return doc
}

// builder accumulates sections and structural signals during one AST walk.
type builder struct {
	doc        *models.Document
	src        []byte
	lineStarts []int
	seenPaths  map[string]int

	// open ancestor chain, shallowest first
	stack []openSection

	current      *models.Section
	contentParts []string
	lastLine     int
}

type openSection struct {
	level int
	path  string
}

func (b *builder) walk(root ast.Node) {
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			line := b.nodeLine(node)
			b.closeSection(line - 1)
			b.openSection(node, line)
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			b.lastLine = b.nodeLine(n)
			b.appendContent(blockText(n, b.src))

		case *ast.FencedCodeBlock:
			line := b.nodeLine(node)
			b.lastLine = line
			b.doc.CodeBlocks = append(b.doc.CodeBlocks, models.CodeBlock{
				Language: string(node.Language(b.src)),
				Line:     line,
			})
			b.appendContent(blockText(node, b.src))

		case *ast.CodeBlock:
			b.lastLine = b.nodeLine(node)
			b.appendContent(blockText(node, b.src))

		case *east.Table:
			b.doc.Tables = append(b.doc.Tables, b.tableRecord(node))
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			b.doc.Links = append(b.doc.Links, newLink(string(node.Destination), string(node.Text(b.src)), b.lastLine))

		case *ast.AutoLink:
			url := string(node.URL(b.src))
			b.doc.Links = append(b.doc.Links, newLink(url, url, b.lastLine))
		}

		return ast.WalkContinue, nil
	})
}

func (b *builder) openSection(h *ast.Heading, line int) {
	heading := strings.TrimSpace(string(h.Text(b.src)))
	slug := Slugify(heading)

	// A level-1 heading resets the path root; otherwise the path chains
	// from the nearest open ancestor at a shallower level.
	if h.Level == 1 {
		b.stack = b.stack[:0]
	} else {
		for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= h.Level {
			b.stack = b.stack[:len(b.stack)-1]
		}
	}

	path := slug
	if len(b.stack) > 0 {
		path = b.stack[len(b.stack)-1].path + "/" + slug
	}
	path = b.uniquePath(path)

	b.stack = append(b.stack, openSection{level: h.Level, path: path})
	b.current = &models.Section{
		Path:      path,
		Heading:   heading,
		Level:     h.Level,
		StartLine: line,
	}
	b.contentParts = b.contentParts[:0]
	b.lastLine = line
}

func (b *builder) closeSection(endLine int) {
	if b.current == nil {
		return
	}
	sec := *b.current
	sec.Content = strings.TrimSpace(strings.Join(b.contentParts, "\n"))
	if endLine < sec.StartLine {
		endLine = sec.StartLine
	}
	sec.EndLine = endLine
	sec.Fingerprint = Fingerprint(sec.Heading, sec.Content)
	b.doc.Sections = append(b.doc.Sections, sec)
	b.current = nil
}

func (b *builder) appendContent(s string) {
	if b.current == nil || s == "" {
		return
	}
	b.contentParts = append(b.contentParts, s)
}

func (b *builder) uniquePath(path string) string {
	b.seenPaths[path]++
	if n := b.seenPaths[path]; n > 1 {
		return path + "-" + strconv.Itoa(n)
	}
	return path
}

func (b *builder) tableRecord(t *east.Table) models.Table {
	rec := models.Table{Line: b.lastLine}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		switch r := row.(type) {
		case *east.TableHeader:
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				rec.Headers = append(rec.Headers, strings.TrimSpace(string(cell.Text(b.src))))
			}
		case *east.TableRow:
			rec.RowCount++
		}
	}
	return rec
}

// nodeLine returns the 1-based source line of a block node, or the last
// seen line when the node carries no segments.
func (b *builder) nodeLine(n ast.Node) int {
	type lined interface{ Lines() *text.Segments }
	if ln, ok := n.(lined); ok && ln.Lines().Len() > 0 {
		return b.lineAt(ln.Lines().At(0).Start)
	}
	if b.lastLine > 0 {
		return b.lastLine
	}
	return 1
}

func (b *builder) lineAt(offset int) int {
	return sort.SearchInts(b.lineStarts, offset+1)
}

func (b *builder) lineCount() int {
	return len(b.lineStarts)
}

// blockText concatenates the raw line segments of a block node.
func blockText(n ast.Node, src []byte) string {
	type lined interface{ Lines() *text.Segments }
	ln, ok := n.(lined)
	if !ok {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < ln.Lines().Len(); i++ {
		seg := ln.Lines().At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String())
}

// lineOffsets returns the byte offset of each line start.
func lineOffsets(src []byte) []int {
	offsets := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)
	schemeRe     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// Slugify converts a heading into its path component.
func Slugify(heading string) string {
	s := strings.ToLower(strings.TrimSpace(heading))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "section"
	}
	return s
}

// Fingerprint is a short content hash used for cheap equality checks.
func Fingerprint(heading, content string) string {
	sum := sha256.Sum256([]byte(heading + "\n" + content))
	return hex.EncodeToString(sum[:8])
}

// newLink classifies a URL as internal or external and resolves the
// internal target: fragments become slug paths, relative Markdown file
// links lose their extension.
func newLink(url, text string, line int) models.Link {
	link := models.Link{URL: url, Text: text, Line: line}

	switch {
	case strings.HasPrefix(url, "#"):
		link.Internal = true
		link.Target = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(url, "#")), "#", "/")
	case schemeRe.MatchString(url) || strings.HasPrefix(url, "//"):
		link.Internal = false
	default:
		link.Internal = true
		target := url
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimPrefix(target, "./")
		for _, ext := range []string{".md", ".markdown"} {
			if strings.HasSuffix(strings.ToLower(target), ext) {
				target = target[:len(target)-len(ext)]
				break
			}
		}
		link.Target = target
	}
	return link
}
