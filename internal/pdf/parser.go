// Package pdf extracts plain text from meeting export PDFs.
//
// Extraction distinguishes two failure classes. Files that cannot be
// opened or read at all surface as ordinary errors, since the file may
// still be mid-write by the exporter and a later attempt can succeed.
// Files that open but yield no usable text report the problem in
// Document.Err instead; the bytes are what they are, and retrying will
// not change them.
package pdf

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
)

var (
	// runsOfBlankLines collapses three or more newlines to one blank line.
	runsOfBlankLines = regexp.MustCompile(`\n{3,}`)
	// runsOfSpaces collapses repeated spaces.
	runsOfSpaces = regexp.MustCompile(` +`)
	// gluedWords finds a lowercase letter jammed against an uppercase one,
	// a common artifact of PDF text extraction.
	gluedWords = regexp.MustCompile(`([a-z])([A-Z])`)
	// oddWhitespace normalizes tabs and other non-newline whitespace.
	oddWhitespace = regexp.MustCompile(`[^\S\n]+`)
)

// Document is the extracted content of one export.
type Document struct {
	// Title is the first non-empty line of the cleaned text.
	Title string
	// Text is the cleaned plain text of all pages.
	Text string
	// Pages is the page count of the file.
	Pages int
	// Err describes a content problem: the file was readable but no
	// usable text came out. Content problems are permanent for a given
	// file version, unlike read errors.
	Err string
}

// Parser extracts and cleans text from PDF files.
type Parser struct {
	logger *log.Logger
}

// NewParser returns a Parser. If logger is nil, a stderr logger is used.
func NewParser(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.New(os.Stderr, "[pdf] ", log.LstdFlags)
	}
	return &Parser{logger: logger}
}

// Parse reads the PDF at path and returns its cleaned text. The error
// return covers files that cannot be opened or read; a Document with Err
// set means the file was readable but its content is not a usable PDF.
func (p *Parser) Parse(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat PDF %s: %w", path, err)
	}

	// Reader construction fails on structure, not on I/O: the bytes were
	// readable, they just are not a PDF. That is permanent for this file
	// version.
	r, err := lpdf.NewReader(f, info.Size())
	if err != nil {
		p.logger.Printf("Error parsing PDF %s: %v", path, err)
		return Document{Err: fmt.Sprintf("malformed PDF structure: %v", err)}, nil
	}

	return p.extract(path, r), nil
}

// extract walks every page and assembles the cleaned document. The pdf
// library panics on some malformed files, so extraction converts a panic
// into a content error rather than taking the process down.
func (p *Parser) extract(path string, r *lpdf.Reader) (doc Document) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Printf("Error parsing PDF %s: %v", path, rec)
			doc = Document{Err: fmt.Sprintf("malformed PDF content: %v", rec)}
		}
	}()

	total := r.NumPage()
	var parts []string
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Printf("Warning: failed to extract text from page %d of %s: %v", i, path, err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return Document{Pages: total, Err: "no text content could be extracted"}
	}

	text := cleanText(strings.Join(parts, "\n"))
	return Document{
		Title: extractTitle(text),
		Text:  text,
		Pages: total,
	}
}

// cleanText normalizes extraction artifacts: runs of blank lines, runs of
// spaces, words glued together across style boundaries, and stray
// non-newline whitespace.
func cleanText(text string) string {
	text = runsOfBlankLines.ReplaceAllString(text, "\n\n")
	text = runsOfSpaces.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = gluedWords.ReplaceAllString(text, "$1 $2")
	text = oddWhitespace.ReplaceAllString(text, " ")
	return text
}

// extractTitle returns the first non-empty line, or "Untitled".
func extractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return "Untitled"
}
