package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"parent", "parent", false},
		{"  is_friend ", "is_friend", false},
		{"Parent2", "Parent2", false},
		{"_private", "_private", false},
		{"", "", true},
		{"two words", "", true},
		{"2nd", "", true},
		{"a`b", "", true},
		{"x]->(m) DELETE m", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SanitizeLabel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLabel)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSocialLabel(t *testing.T) {
	assert.Equal(t, "is_friend", socialLabel("Friend"))
	assert.Equal(t, "is_best_friend", socialLabel(" Best  Friend "))
}
