package chunker

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"repoanalyst/internal/domain"
)

// Chunker splits repository files into evidence chunks. Go files are split
// by declaration, markdown files by section, everything else by sliding line
// windows.
type Chunker struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// ChunkFile splits one file's content into chunks carrying line metadata.
func (c *Chunker) ChunkFile(content, path string) []domain.EvidenceChunk {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		if chunks := c.chunkGo(content, path); len(chunks) > 0 {
			return chunks
		}
		return c.chunkWindows(content, path, domain.KindCodeSection)
	case ".md", ".markdown":
		return c.chunkMarkdown(content, path)
	default:
		return c.chunkWindows(content, path, domain.KindCodeSection)
	}
}

// chunkGo produces one chunk per top-level declaration. Declarations larger
// than the chunk size are split into windows keeping the original line
// numbers.
func (c *Chunker) chunkGo(content, path string) []domain.EvidenceChunk {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return nil
	}

	lines := strings.Split(content, "\n")
	var chunks []domain.EvidenceChunk
	for _, decl := range file.Decls {
		kind := domain.KindCodeSection
		switch d := decl.(type) {
		case *ast.FuncDecl:
			kind = domain.KindFunction
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				kind = domain.KindClass
			}
		}
		start := fset.Position(decl.Pos()).Line
		end := fset.Position(decl.End()).Line
		if doc := declDoc(decl); doc != nil {
			if l := fset.Position(doc.Pos()).Line; l < start {
				start = l
			}
		}
		if start < 1 || end > len(lines) {
			continue
		}
		text := strings.Join(lines[start-1:end], "\n")
		if len(text) <= c.chunkSize {
			chunks = append(chunks, domain.EvidenceChunk{
				Text:       text,
				SourcePath: path,
				StartLine:  start,
				EndLine:    end,
				Kind:       kind,
			})
			continue
		}
		chunks = append(chunks, c.splitWindow(lines[start-1:end], path, start, kind)...)
	}
	return chunks
}

func declDoc(decl ast.Decl) *ast.CommentGroup {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		return d.Doc
	case *ast.GenDecl:
		return d.Doc
	}
	return nil
}

// chunkMarkdown accumulates paragraphs into section chunks, starting a new
// chunk at headings or when the size cap is reached.
func (c *Chunker) chunkMarkdown(content, path string) []domain.EvidenceChunk {
	lines := strings.Split(content, "\n")
	var chunks []domain.EvidenceChunk
	var buf []string
	bufStart := 1

	flush := func(endLine int) {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text != "" {
			chunks = append(chunks, domain.EvidenceChunk{
				Text:       text,
				SourcePath: path,
				StartLine:  bufStart,
				EndLine:    endLine,
				Kind:       domain.KindMarkdownSection,
			})
		}
		buf = nil
	}

	size := 0
	for i, line := range lines {
		isHeading := strings.HasPrefix(strings.TrimSpace(line), "#")
		if (isHeading && size > 0) || size+len(line) > c.chunkSize {
			flush(i)
			bufStart = i + 1
			size = 0
		}
		buf = append(buf, line)
		size += len(line) + 1
	}
	flush(len(lines))
	return chunks
}

// chunkWindows splits raw content into fixed-size line windows with overlap.
func (c *Chunker) chunkWindows(content, path string, kind string) []domain.EvidenceChunk {
	lines := strings.Split(content, "\n")
	return c.splitWindow(lines, path, 1, kind)
}

func (c *Chunker) splitWindow(lines []string, path string, firstLine int, kind string) []domain.EvidenceChunk {
	var chunks []domain.EvidenceChunk
	i := 0
	for i < len(lines) {
		size := 0
		j := i
		for j < len(lines) && (size == 0 || size+len(lines[j])+1 <= c.chunkSize) {
			size += len(lines[j]) + 1
			j++
		}
		text := strings.TrimRight(strings.Join(lines[i:j], "\n"), "\n")
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, domain.EvidenceChunk{
				Text:       text,
				SourcePath: path,
				StartLine:  firstLine + i,
				EndLine:    firstLine + j - 1,
				Kind:       kind,
			})
		}
		if j >= len(lines) {
			break
		}
		// step back a few lines of overlap, but always make progress
		next := j - c.overlapLines()
		if next <= i {
			next = j
		}
		i = next
	}
	return chunks
}

// overlapLines approximates the byte overlap as a line count assuming the
// corpus average of roughly 40 bytes per line.
func (c *Chunker) overlapLines() int {
	return c.overlap / 40
}
