package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestResult_MarshalJSON(t *testing.T) {
	res := IngestResult{
		File: UploadedFile{
			StoredPath:   "/srv/temp/1700000000000-abcd-report.pdf",
			Filename:     "1700000000000-abcd-report.pdf",
			OriginalName: "report.pdf",
		},
		Result: ProcessingResult{
			"summary":  "short",
			"text":     "long text",
			"filename": "remote-should-not-win",
		},
	}

	b, err := json.Marshal(res)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "short", got["summary"])
	assert.Equal(t, "long text", got["text"])
	assert.Equal(t, "/srv/temp/1700000000000-abcd-report.pdf", got["filePath"])
	assert.Equal(t, "1700000000000-abcd-report.pdf", got["filename"])
	assert.Equal(t, "report.pdf", got["originalName"])
}

func TestIngestResult_MarshalJSON_NilResult(t *testing.T) {
	b, err := json.Marshal(IngestResult{File: UploadedFile{Filename: "a.pdf"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"filePath":"","filename":"a.pdf","originalName":""}`, string(b))
}

func TestQuestion_OmitsUnusedReference(t *testing.T) {
	b, err := json.Marshal(Question{FilePath: "/tmp/a.pdf", Question: "who?"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_path":"/tmp/a.pdf","question":"who?"}`, string(b))

	b, err = json.Marshal(Question{DocumentText: "hello", Question: "who?"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_text":"hello","question":"who?"}`, string(b))
}
