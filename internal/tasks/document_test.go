package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/llm"
)

func TestDocumentTool(t *testing.T) {
	b, err := json.Marshal(llm.Translate(DocumentSchema, DocumentTask))
	require.NoError(t, err)

	assert.JSONEq(t, `{
	  "type": "function",
	  "function": {
	    "name": "documentextraction",
	    "description": "Extract structured documentextraction data from document text.",
	    "parameters": {
	      "type": "object",
	      "properties": {
	        "introduction": {"type": "string", "description": "An introduction extracted from the document"},
	        "architecture_overview": {"type": "string", "description": "The architecture overview"},
	        "communication_protocols": {"type": "array", "items": {"type": "string", "enum": ["gRPC", "https", "REST/JSON"]}}
	      },
	      "required": ["introduction", "architecture_overview", "communication_protocols"]
	    }
	  }
	}`, string(b))
}
