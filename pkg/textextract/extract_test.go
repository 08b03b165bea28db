package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTXT(t *testing.T) {
	data := []byte("  RFQ SPE4A6-26-Q-0400\nQTY: 40  \n")
	res, err := Extract(bytes.NewReader(data), int64(len(data)), ".txt")
	require.NoError(t, err)
	assert.Equal(t, "RFQ SPE4A6-26-Q-0400\nQTY: 40", res.Content)
	assert.Equal(t, "txt", res.Kind)
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Purchase Order</w:t></w:r><w:r><w:t>SPE4A6-26-V-1001</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data := buf.Bytes()
	res, err := Extract(bytes.NewReader(data), int64(len(data)), "docx")
	require.NoError(t, err)
	assert.Equal(t, "Purchase Order SPE4A6-26-V-1001", res.Content)
}

func TestExtractContentTypeAliases(t *testing.T) {
	data := []byte("plain")
	res, err := Extract(bytes.NewReader(data), int64(len(data)), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", res.Content)
}

func TestExtractUnsupportedType(t *testing.T) {
	_, err := Extract(bytes.NewReader(nil), 0, ".xlsx")
	assert.Error(t, err)
}
