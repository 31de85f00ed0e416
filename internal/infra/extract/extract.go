package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Text determines the true file type from the bytes (sniffing, never trusting
// the name alone) and extracts plain text. Supported: PDF, TXT/MD, HTML.
func Text(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file: %s", name)
	}

	if isPDF(data) {
		return fromPDF(data)
	}
	if looksLikeHTML(data) {
		return stripHTML(string(data)), nil
	}
	if isProbablyText(data) {
		return strings.TrimSpace(string(data)), nil
	}

	return "", fmt.Errorf("unsupported file type: %s", name)
}

func isPDF(b []byte) bool {
	// PDF starts with "%PDF-"
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func looksLikeHTML(b []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(b[:min(len(b), 2048)])))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

func isProbablyText(b []byte) bool {
	// Mostly printable bytes and no NULs.
	sample := b[:min(len(b), 4096)]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return good*10 >= len(sample)*9
}

func fromPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return out, nil
}

var tagRe = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)

func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
