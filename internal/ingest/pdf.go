package ingest

import (
	"bufio"
	"fmt"
	"strings"

	"researchhub/internal/util"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls plain text from the PDF at path, reading at most
// maxPages pages. Pages that fail to decode are skipped rather than
// failing the whole extraction.
func ExtractText(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}
	b := strings.Builder{}
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	text := util.SanitizeText(strings.TrimSpace(b.String()))
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}

// HeuristicTitleAndAuthors guesses the title and author list from the first
// non-empty lines of extracted text. Good enough for uploads that carry no
// catalog metadata.
func HeuristicTitleAndAuthors(text string) (string, []string) {
	s := bufio.NewScanner(strings.NewReader(text))
	nonEmpty := make([]string, 0, 4)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		nonEmpty = append(nonEmpty, line)
		if len(nonEmpty) == 4 {
			break
		}
	}
	title := ""
	if len(nonEmpty) > 0 {
		title = nonEmpty[0]
	}
	if len(nonEmpty) < 2 {
		return title, nil
	}
	return title, splitAuthors(nonEmpty[1])
}

func splitAuthors(line string) []string {
	line = strings.ReplaceAll(line, " and ", ",")
	parts := strings.Split(line, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
