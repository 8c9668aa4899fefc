package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ReferenceList
	}{
		{"array", `{"references":["https://a.com"," https://b.com ","https://a.com",""]}`, ReferenceList{"https://a.com", "https://b.com"}},
		{"comma string", `{"references":"https://a.com, https://b.com,,https://a.com"}`, ReferenceList{"https://a.com", "https://b.com"}},
		{"empty array", `{"references":[]}`, ReferenceList{}},
		{"empty string", `{"references":""}`, ReferenceList{}},
		{"null", `{"references":null}`, nil},
		{"absent", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in ProfileInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))
			assert.Equal(t, tt.want, in.References)
		})
	}
}

func TestReferenceList_UnmarshalJSONRejectsOtherShapes(t *testing.T) {
	for _, body := range []string{`{"references":42}`, `{"references":[1,2]}`, `{"references":{"a":"b"}}`} {
		var in ProfileInput
		assert.Error(t, json.Unmarshal([]byte(body), &in), body)
	}
}

func TestValidReference(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1#frag", true},
		{"https://sub.example.co.uk:8443/a", true},
		{"ftp://example.com", false},
		{"https://localhost", false},
		{"example.com", false},
		{"https://", false},
		{"https://exa mple.com", false},
		{"javascript:alert(1)", false},
		{"https://example.com/" + string(make([]byte, 2048)), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidReference(tt.ref), tt.ref)
	}
}

func TestInvalidReferences(t *testing.T) {
	assert.Nil(t, InvalidReferences([]string{"https://example.com"}))
	assert.Equal(t, []string{"nope"}, InvalidReferences([]string{"https://example.com", "nope"}))
}

func TestMergeAndRemoveReferences(t *testing.T) {
	current := []string{"https://b.com", "https://a.com"}
	assert.Equal(t, []string{"https://b.com", "https://a.com", "https://c.com"},
		mergeReferences(current, []string{"https://a.com", "https://c.com"}))
	assert.Equal(t, []string{"https://b.com", "https://a.com"}, current, "input must not be modified")

	assert.Equal(t, []string{"https://a.com"}, removeReferences(current, []string{"https://b.com", "https://x.com"}))
	assert.Equal(t, []string{}, removeReferences(nil, []string{"https://x.com"}))
}
