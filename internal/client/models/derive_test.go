package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "none", body: "plain text", want: nil},
		{name: "single", body: "walked 10k #health", want: []string{"health"}},
		{name: "dedup case-insensitive", body: "#Work then #work again", want: []string{"work"}},
		{name: "sorted", body: "#zebra #apple", want: []string{"apple", "zebra"}},
		{name: "mid-word hash ignored", body: "room#5", want: nil},
		{name: "unicode", body: "#зима is here", want: []string{"зима"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTags(tc.body))
		})
	}
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "none", body: "no one here", want: nil},
		{name: "simple", body: "lunch with @anna", want: []string{"anna"}},
		{name: "dotted", body: "ping @j.doe tomorrow", want: []string{"j.doe"}},
		{name: "email not a mention", body: "mail me at x@example.com", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractMentions(tc.body))
		})
	}
}

func TestStripBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "plain", body: " hello ", want: "hello"},
		{name: "html tags", body: "<p>hello</p>", want: "hello"},
		{name: "markdown emphasis", body: "**bold** and _italic_", want: "bold and italic"},
		{name: "only markup", body: "<div><br/></div>", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripBody(tc.body))
		})
	}
}
