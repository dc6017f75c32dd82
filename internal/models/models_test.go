package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \t b\n\nc "))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestItemHash(t *testing.T) {
	base := ItemHash("quote", "We ship in May")

	assert.Equal(t, base, ItemHash(" Quote ", "  We  ship in May "))
	assert.NotEqual(t, base, ItemHash("fact", "We ship in May"))
	assert.NotEqual(t, base, ItemHash("quote", "we ship in may"))
	assert.Len(t, base, 32)
}

func TestUserIsAdmin(t *testing.T) {
	for role, want := range map[string]bool{"admin": true, "ADMIN": true, "editor": false, "administrator": false} {
		u := User{Role: role}
		assert.Equal(t, want, u.IsAdmin(), role)
	}
}

func TestCrawlRecordDisplayTitle(t *testing.T) {
	title := "raw title"
	r := CrawlRecord{Title: &title}
	assert.Equal(t, "raw title", *r.DisplayTitle())

	r.Extra = map[string]any{"display_title": "  Nicer title "}
	assert.Equal(t, "Nicer title", *r.DisplayTitle())

	r.Extra = map[string]any{"display_title": "   "}
	assert.Equal(t, "raw title", *r.DisplayTitle())

	assert.Nil(t, (&CrawlRecord{}).DisplayTitle())
}
