package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckFile(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		want        []Rejection
	}{
		{name: "jpeg", filename: "test.jpg", contentType: "image/jpeg", size: 2048},
		{name: "png", filename: "test.png", contentType: "image/png", size: 2048},
		{name: "exactly 10MiB", filename: "big.png", contentType: "image/png", size: MaxFileSize},
		{name: "octet-stream with jpeg extension", filename: "photo.JPEG", contentType: "application/octet-stream", size: 10},
		{name: "content type with params", filename: "x.png", contentType: "image/png; charset=binary", size: 10},
		{
			name:        "text file",
			filename:    "test.txt",
			contentType: "text/plain",
			size:        12,
			want:        []Rejection{RejectInvalidType},
		},
		{
			name:        "gif",
			filename:    "anim.gif",
			contentType: "image/gif",
			size:        12,
			want:        []Rejection{RejectInvalidType},
		},
		{
			name:        "too large",
			filename:    "huge.jpg",
			contentType: "image/jpeg",
			size:        MaxFileSize + 1,
			want:        []Rejection{RejectTooLarge},
		},
		{
			name:        "too large and wrong type",
			filename:    "huge.bmp",
			contentType: "image/bmp",
			size:        MaxFileSize + 1,
			want:        []Rejection{RejectInvalidType, RejectTooLarge},
		},
		{
			name:        "empty file",
			filename:    "empty.png",
			contentType: "image/png",
			size:        0,
			want:        []Rejection{RejectEmpty},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckFile(tt.filename, tt.contentType, tt.size, 0))
		})
	}
}

func TestCheckFileCustomLimit(t *testing.T) {
	assert.Equal(t, []Rejection{RejectTooLarge}, CheckFile("a.png", "image/png", 101, 100))
	assert.Empty(t, CheckFile("a.png", "image/png", 100, 100))
}

func TestNormalizeContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", NormalizeContentType("a.jpg", ""))
	assert.Equal(t, "image/jpeg", NormalizeContentType("a.bin", "image/jpg"))
	assert.Equal(t, "image/png", NormalizeContentType("a.PNG", "application/octet-stream"))
	assert.Equal(t, "text/plain", NormalizeContentType("a.png", "text/plain"))
	assert.Equal(t, "", NormalizeContentType("a.txt", ""))
}
