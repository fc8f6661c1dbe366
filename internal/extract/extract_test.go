package extract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/docchat/internal/domain"
)

func TestExtract_PlainTextIsOnePage(t *testing.T) {
	e := New()
	content := []byte("The sky is blue.\nThe grass is green.")

	pages, err := e.Extract(bytes.NewReader(content), int64(len(content)), "notes.txt")
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, string(content), pages[0].Text)
}

func TestExtract_UppercaseExtension(t *testing.T) {
	e := New()
	content := []byte("hello")

	pages, err := e.Extract(bytes.NewReader(content), int64(len(content)), "NOTES.TXT")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "hello", pages[0].Text)
}

func TestExtract_UnsupportedType(t *testing.T) {
	e := New()
	content := []byte("binary stuff")

	pages, err := e.Extract(bytes.NewReader(content), int64(len(content)), "image.png")
	assert.Nil(t, pages)
	assert.Equal(t, domain.ErrUnsupportedFile, err)
}

func TestExtract_InvalidPDF(t *testing.T) {
	e := New()
	content := []byte("not actually a pdf")

	_, err := e.Extract(bytes.NewReader(content), int64(len(content)), "broken.pdf")
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("report.pdf"))
	assert.True(t, Supported("README.txt"))
	assert.True(t, Supported("REPORT.PDF"))
	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("noextension"))
}
