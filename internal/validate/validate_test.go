package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidFileType(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		want bool
	}{
		{name: "tt2", fn: "quote.tt2", want: true},
		{name: "tt2x", fn: "quote.tt2x", want: true},
		{name: "upper case", fn: "QUOTE.TT2", want: true},
		{name: "mixed case tt2x", fn: "smith.Tt2X", want: true},
		{name: "nested path", fn: "exports/2024/smith.tt2", want: true},
		{name: "no extension", fn: "quote", want: false},
		{name: "txt", fn: "quote.txt", want: false},
		{name: "tt2 in middle", fn: "quote.tt2.bak", want: false},
		{name: "tt3", fn: "quote.tt3", want: false},
		{name: "empty", fn: "", want: false},
		{name: "dot only", fn: ".", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidFileType(tt.fn))
		})
	}
}

func TestIsValidFileSize(t *testing.T) {
	assert.False(t, IsValidFileSize(100*1024*1024))
	assert.True(t, IsValidFileSize(100*1024*1024-1))
	assert.True(t, IsValidFileSize(0))
	assert.False(t, IsValidFileSize(200*1024*1024))
	assert.False(t, IsValidFileSize(-1))
}

func TestFile(t *testing.T) {
	assert.NoError(t, File("a.tt2", 10))

	err := File("a.pdf", 10)
	assert.ErrorIs(t, err, ErrInvalidFileType)
	assert.Contains(t, err.Error(), "a.pdf")

	err = File("a.tt2", MaxFileSize)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "a.tt2")
}
