package collect

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fragment", "https://sandiego.gov/docs/accela-order-2024.pdf#page=2", "https://sandiego.gov/docs/accela-order-2024.pdf"},
		{"case", "HTTPS://SanDiego.GOV/Docs/Order.PDF", "https://sandiego.gov/docs/order.pdf"},
		{"trailing slash", "https://example.gov/contracts/", "https://example.gov/contracts"},
		{"root", "https://example.gov/", "https://example.gov"},
		{"tracking params", "https://example.gov/a.pdf?utm_source=x&utm_medium=y&gclid=z", "https://example.gov/a.pdf"},
		{"keeps id params sorted", "https://example.gov/doc?b=2&id=7&fbclid=q", "https://example.gov/doc?b=2&id=7"},
		{"default port", "http://example.gov:80/x", "http://example.gov/x"},
		{"custom port", "https://example.gov:8443/x", "https://example.gov:8443/x"},
		{"ddg redirect", "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fsandiego.gov%2Fa.pdf&rut=abc", "https://sandiego.gov/a.pdf"},
		{"scheme relative", "//example.gov/a", "https://example.gov/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL_Rejects(t *testing.T) {
	for _, in := range []string{"", "mailto:a@b.gov", "ftp://example.gov/x", "not a url", "javascript:void(0)"} {
		if _, err := NormalizeURL(in); err == nil {
			t.Errorf("NormalizeURL(%q) expected error", in)
		}
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.SanDiego.gov/a", "sandiego.gov"},
		{"https://anaheim-ca.civicweb.net:443/x", "anaheim-ca.civicweb.net"},
		{"bogus", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
