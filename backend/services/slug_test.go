package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"testland", true},
		{"north-land", true},
		{"north-land-1", true},
		{"123", true},
		{"", false},
		{"North-Land", false},
		{"north_land", false},
		{"north--land", false},
		{"-north", false},
		{"north-", false},
		{"north land", false},
		{"côte", false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSlug(tt.slug))
		})
	}
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"North Land", "north-land"},
		{"  Testland  ", "testland"},
		{"Côte d'Ivoire", "cote-divoire"},
		{"São Tomé & Príncipe", "sao-tome-principe"},
		{"Bosnia_and Herzegovina", "bosnia-and-herzegovina"},
		{"Guinea--Bissau", "guinea-bissau"},
		{"!!!", "country"},
		{"", "country"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlug(tt.name)
			assert.Equal(t, tt.want, got)
			assert.True(t, ValidSlug(got))
		})
	}
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "north-land", slugCandidate("north-land", 0))
	assert.Equal(t, "north-land-1", slugCandidate("north-land", 1))
	assert.Equal(t, "north-land-12", slugCandidate("north-land", 12))
}
