// Package e2e runs whole discovery runs against a simulated public web.
package e2e

import (
	"archive/zip"
	"bytes"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// DocumentExtensions are the document types fixtures can be built as.
var DocumentExtensions = []string{".txt", ".html", ".docx", ".xlsx"}

// DocumentBytes renders lines as a minimal file of the given type. Each line
// becomes a paragraph (.docx) or a row whose cells are split on tabs (.xlsx).
func DocumentBytes(ext string, lines []string) ([]byte, error) {
	switch ext {
	case ".docx":
		return minimalDocx(lines), nil
	case ".xlsx":
		return minimalXlsx(lines)
	case ".html":
		var b strings.Builder
		b.WriteString("<html><body>")
		for _, l := range lines {
			b.WriteString("<p>" + html.EscapeString(l) + "</p>")
		}
		b.WriteString("</body></html>")
		return []byte(b.String()), nil
	default:
		return []byte(strings.Join(lines, "\n")), nil
	}
}

func minimalDocx(lines []string) []byte {
	var body strings.Builder
	for _, l := range lines {
		body.WriteString(`<w:p><w:r><w:t>` + html.EscapeString(l) + `</w:t></w:r></w:p>`)
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func minimalXlsx(lines []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, l := range lines {
		cells := strings.Split(l, "\t")
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Web serves pages for any host from one local server. Requests keep their
// original Host header, so pages are keyed by host and path.
type Web struct {
	server *httptest.Server
	mu     sync.Mutex
	pages  map[string]servedPage
	hits   map[string]int
}

type servedPage struct {
	status      int
	contentType string
	body        []byte
}

// NewWeb starts an empty simulated web. Unknown pages answer 404.
func NewWeb() *Web {
	w := &Web{pages: make(map[string]servedPage), hits: make(map[string]int)}
	w.server = httptest.NewServer(http.HandlerFunc(w.serve))
	return w
}

func pageKey(host, path string) string {
	return strings.ToLower(host) + path
}

// Handle serves body at rawURL. The fragment and query are ignored.
func (w *Web) Handle(rawURL string, status int, contentType string, body []byte) {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages[pageKey(u.Host, u.Path)] = servedPage{status: status, contentType: contentType, body: body}
}

func (w *Web) serve(rw http.ResponseWriter, r *http.Request) {
	key := pageKey(r.Host, r.URL.Path)
	w.mu.Lock()
	w.hits[key]++
	p, ok := w.pages[key]
	w.mu.Unlock()
	if !ok {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", p.contentType)
	rw.WriteHeader(p.status)
	if r.Method != http.MethodHead {
		_, _ = rw.Write(p.body)
	}
}

// Hits returns how many requests reached rawURL.
func (w *Web) Hits(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[pageKey(u.Host, u.Path)]
}

// Client returns an HTTP client that sends every request to the simulated web.
func (w *Web) Client() *http.Client {
	target, _ := url.Parse(w.server.URL)
	return &http.Client{Transport: routeTransport{target: target, base: w.server.Client().Transport}}
}

// Close shuts the server down.
func (w *Web) Close() {
	w.server.Close()
}

type routeTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Host == "" {
		r.Host = req.URL.Host
	}
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return t.base.RoundTrip(r)
}
