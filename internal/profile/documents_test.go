package profile

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestExtractTextPlainFormats(t *testing.T) {
	for _, name := range []string{"notes.txt", "README.md"} {
		got, err := ExtractText(name, []byte("parish hall roof leaks"))
		if err != nil {
			t.Fatalf("ExtractText(%s): %v", name, err)
		}
		if got != "parish hall roof leaks" {
			t.Fatalf("ExtractText(%s) = %q", name, got)
		}
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	_, err := ExtractText("sheet.xlsx", []byte("data"))
	if !errors.Is(err, ErrUnsupportedDocument) {
		t.Fatalf("err = %v, want ErrUnsupportedDocument", err)
	}
}

func TestExtractTextMalformedPDFDoesNotPanic(t *testing.T) {
	if _, err := ExtractText("broken.pdf", []byte("%PDF-1.4 garbage")); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextDocx(t *testing.T) {
	doc := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Our gym roof</w:t></w:r><w:r><w:t> needs replacement.</w:t></w:r></w:p>
    <w:p><w:r><w:t>We also need playground equipment.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := ExtractText("needs.docx", doc)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(got, "Our gym roof needs replacement.") {
		t.Fatalf("missing joined runs: %q", got)
	}
	if !strings.Contains(got, "\nWe also need playground equipment.") {
		t.Fatalf("paragraphs not separated: %q", got)
	}
}

func TestExtractTextDocxWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("word/other.xml")
	f.Write([]byte("<x/>"))
	w.Close()

	if _, err := ExtractText("empty.docx", buf.Bytes()); err == nil {
		t.Fatal("expected error for docx without document.xml")
	}
}
