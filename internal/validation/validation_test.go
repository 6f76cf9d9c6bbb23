package validation

import (
	"strings"
	"testing"
)

func TestValidateHandle(t *testing.T) {
	tests := []struct {
		name   string
		handle string
		want   bool
	}{
		{"valid alphanumeric", "shop123", true},
		{"valid with hyphen", "corner-shop", true},
		{"valid with underscore", "corner_shop", true},
		{"min length", "abc", true},
		{"max length", strings.Repeat("a", 20), true},
		{"too short", "ab", false},
		{"too long", strings.Repeat("a", 21), false},
		{"uppercase", "Shop", false},
		{"empty string", "", false},
		{"contains space", "my shop", false},
		{"contains dot", "my.shop", false},
		{"contains slash", "my/shop", false},
		{"path traversal attempt", "../etc", false},
		{"unicode", "日本語日本語", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateHandle(tt.handle)
			if got != tt.want {
				t.Errorf("ValidateHandle(%q) = %v, want %v", tt.handle, got, tt.want)
			}
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	if got := NormalizeHandle("  Corner_Shop "); got != "corner_shop" {
		t.Errorf("NormalizeHandle() = %q, want %q", got, "corner_shop")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		valid   bool
		wantMsg string
	}{
		{"valid https", "https://example.com", true, ""},
		{"valid http", "http://example.com", true, ""},
		{"valid with path", "https://example.com/path/to/page", true, ""},
		{"valid with query", "https://example.com?foo=bar", true, ""},
		{"valid with port", "https://example.com:8080", true, ""},
		{"empty string", "", false, "URL is required"},
		{"javascript scheme", "javascript:alert(1)", false, "URL must use http:// or https:// scheme"},
		{"data scheme", "data:text/html,<script>alert(1)</script>", false, "URL must use http:// or https:// scheme"},
		{"vbscript scheme", "vbscript:msgbox", false, "URL must use http:// or https:// scheme"},
		{"file scheme", "file:///etc/passwd", false, "URL must use http:// or https:// scheme"},
		{"ftp scheme", "ftp://example.com", false, "URL must use http:// or https:// scheme"},
		{"no scheme", "example.com", false, "URL must use http:// or https:// scheme"},
		{"relative url", "/path/to/page", false, "URL must use http:// or https:// scheme"},
		{"uppercase scheme", "HTTPS://example.com", true, ""},
		{"mixed case scheme", "HtTpS://example.com", true, ""},
		{"scheme only", "https://", false, "URL must have a valid host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := ValidateURL(tt.url)
			if valid != tt.valid {
				t.Errorf("ValidateURL(%q) valid = %v, want %v", tt.url, valid, tt.valid)
			}
			if !valid && msg != tt.wantMsg {
				t.Errorf("ValidateURL(%q) msg = %q, want %q", tt.url, msg, tt.wantMsg)
			}
		})
	}
}

func TestStruct(t *testing.T) {
	type request struct {
		Title  string  `json:"title" validate:"required,max=10"`
		URL    string  `json:"url" validate:"required,weburl"`
		Color  string  `json:"text_color" validate:"omitempty,color"`
		Handle *string `json:"handle" validate:"omitempty,handle"`
	}

	bad := "No"
	good := "corner_shop"

	tests := []struct {
		name    string
		req     request
		wantErr string
	}{
		{"valid", request{Title: "Menu", URL: "https://example.com", Color: "#fff", Handle: &good}, ""},
		{"missing title", request{URL: "https://example.com"}, "title is required"},
		{"long title", request{Title: "A very long title", URL: "https://example.com"}, "title must be at most 10 characters"},
		{"bad scheme", request{Title: "Menu", URL: "javascript:alert(1)"}, "url must be a valid http:// or https:// URL"},
		{"bad color", request{Title: "Menu", URL: "https://example.com", Color: "red"}, "text_color must be a hex colour like #1a2b3c"},
		{"bad handle", request{Title: "Menu", URL: "https://example.com", Handle: &bad}, "handle must be 3-20 lowercase letters, numbers, hyphens, or underscores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Struct() error = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Struct() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
