package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsLink(t *testing.T) {
	tests := []struct {
		name     string
		document string
		target   string
		want     bool
	}{
		{
			name:     "exact match",
			document: `<p><a href="https://example.io/guide">guide</a></p>`,
			target:   "https://example.io/guide",
			want:     true,
		},
		{
			name:     "scheme and www ignored",
			document: `<a href="http://www.example.io/guide/">guide</a>`,
			target:   "https://example.io/guide",
			want:     true,
		},
		{
			name:     "trailing slash on target ignored",
			document: `<a href="https://example.io/guide">guide</a>`,
			target:   "https://example.io/guide/",
			want:     true,
		},
		{
			name:     "different path does not match",
			document: `<a href="https://example.io/other">other</a>`,
			target:   "https://example.io/guide",
			want:     false,
		},
		{
			name:     "link in plain text does not count",
			document: `<p>see https://example.io/guide for details</p>`,
			target:   "https://example.io/guide",
			want:     false,
		},
		{
			name:     "anchor among other attributes",
			document: `<a class="ext" rel="nofollow" href="https://example.io/guide">x</a>`,
			target:   "https://example.io/guide",
			want:     true,
		},
		{
			name:     "empty document",
			document: "",
			target:   "https://example.io/guide",
			want:     false,
		},
		{
			name:     "empty target never matches",
			document: `<a href="">x</a>`,
			target:   "",
			want:     false,
		},
		{
			name:     "malformed html still scanned",
			document: `<div><a href="https://example.io/guide">unclosed`,
			target:   "https://example.io/guide",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsLink(tt.document, tt.target))
		})
	}
}
