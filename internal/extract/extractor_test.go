package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Order Form\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Order Form\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("fee\x80schedule"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "fee�schedule" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_whitespaceIsNoText(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte(" \n\t "), ".txt")
	if !errors.Is(err, ErrNoText) {
		t.Errorf("err = %v, want ErrNoText", err)
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("raw"), ".xyz")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Item")
	f.SetCellValue("Sheet1", "B1", "Annual Fee")
	f.SetCellValue("Sheet1", "A2", "Civic Platform")
	f.SetCellValue("Sheet1", "B2", "$125,000")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Item\tAnnual Fee\nCivic Platform\t$125,000" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excelSheetLabels(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Year 2"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Sheet1", "A1", "$100,000")
	f.SetCellValue("Year 2", "A1", "$105,000")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "[Sheet1]\n$100,000\n[Year 2]\n$105,000" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_excelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Fee schedule")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Fee schedule" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

// docxWith returns .docx bytes whose main part at docPath holds the given body XML.
func docxWith(body, docPath string, declare bool) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if declare {
		ct, _ := w.Create("[Content_Types].xml")
		_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/` + docPath + `"/>
</Types>`))
	}
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	body := `<w:p w:rsidR="00A1"><w:r><w:t>Order </w:t></w:r><w:r><w:t xml:space="preserve">Form</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Total &amp; fees: $125,000</w:t></w:r></w:p>`
	got, err := NewExtractor().ExtractBytes(docxWith(body, "word/document.xml", false), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Order Form\nTotal & fees: $125,000" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxDeclaredPart(t *testing.T) {
	body := `<w:p><w:r><w:t>Content from document2</w:t></w:r></w:p>`
	got, err := NewExtractor().ExtractBytes(docxWith(body, "word/document2.xml", true), "")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Content from document2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxMissingPart(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := NewExtractor().ExtractBytes(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error when the document part is missing")
	}
}

func TestExtractBytes_html(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>x</title><script>var a=1;</script></head>
<body><h1>Agenda Item 12</h1><p>Approve agreement with Accela</p><p>Amount: $40,000</p></body></html>`
	got, err := NewExtractor().ExtractBytes([]byte(page), ".aspx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if strings.Contains(got, "var a") {
		t.Errorf("script text leaked: %q", got)
	}
	for _, want := range []string{"Agenda Item 12", "Approve agreement with Accela", "$40,000"} {
		if !strings.Contains(got, want) {
			t.Errorf("got %q, missing %q", got, want)
		}
	}
}

// pdfWith returns a PDF with one page per entry of pages, each showing its
// text in Helvetica.
func pdfWith(pages ...string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var kids []string
	for _, text := range pages {
		pageNum := len(objects) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageNum+1))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractBytes_pdf(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(pdfWith("Accela Order Form Annual Fee $125,000"), "")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(got, "Accela Order Form Annual Fee $125,000") {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pdfMaxPages(t *testing.T) {
	doc := pdfWith("Page one pricing", "Page two terms", "Page three signatures")

	all, err := NewExtractor(WithMaxPages(0)).ExtractBytes(doc, ".pdf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	for _, want := range []string{"Page one pricing", "Page two terms", "Page three signatures"} {
		if !strings.Contains(all, want) {
			t.Errorf("unlimited extraction %q missing %q", all, want)
		}
	}

	capped, err := NewExtractor(WithMaxPages(2)).ExtractBytes(doc, ".pdf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if !strings.Contains(capped, "Page two terms") || strings.Contains(capped, "Page three") {
		t.Errorf("capped extraction = %q, want only the first two pages", capped)
	}
}

func TestExtractBytes_brokenPDF(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte("%PDF-1.4\nnot really a pdf"), ".pdf")
	if err == nil {
		t.Error("expected error for a truncated PDF")
	}
}

func TestDetectExt(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		contentType string
		ext         string
		want        string
	}{
		{"pdf magic wins", "%PDF-1.7 ...", "text/html", ".aspx", ".pdf"},
		{"zip defaults to docx", "PK\x03\x04rest", "", "", ".docx"},
		{"zip spreadsheet", "PK\x03\x04rest", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "", ".xlsx"},
		{"html sniffed", "  <!DOCTYPE html><html>", "", ".pdf", ".html"},
		{"content type pdf", "garbage", "application/pdf", "", ".pdf"},
		{"falls back to ext", "garbage", "", ".RTF", ".rtf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectExt([]byte(tt.content), tt.contentType, tt.ext); got != tt.want {
				t.Errorf("DetectExt() = %q, want %q", got, tt.want)
			}
		})
	}
}

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractBytes([]byte, string) (string, error) { return s.text, s.err }

func TestChain(t *testing.T) {
	tests := []struct {
		name    string
		chain   *Chain
		want    string
		wantErr error
	}{
		{"empty chain", NewChain(), "", ErrUnavailable},
		{"first wins", NewChain(stubExtractor{text: "a"}, stubExtractor{text: "b"}), "a", nil},
		{"fallback after no text", NewChain(stubExtractor{err: ErrNoText}, stubExtractor{text: "b"}), "b", nil},
		{"all empty", NewChain(stubExtractor{err: ErrNoText}, stubExtractor{err: ErrUnsupported}), "", ErrNoText},
		{"all unsupported", NewChain(stubExtractor{err: ErrUnsupported}, stubExtractor{err: ErrUnsupported}), "", ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.chain.ExtractBytes(nil, ".pdf")
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("err = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChain_realErrorSurfaces(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewChain(stubExtractor{err: boom}, stubExtractor{err: ErrUnsupported}).ExtractBytes(nil, ".pdf")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
