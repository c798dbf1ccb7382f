// Package tasks holds the built-in extraction tasks.
package tasks

import "github.com/joseph-ayodele/docextract/internal/llm"

// Protocol choices for DocumentExtraction.communication_protocols.
const (
	ProtocolGRPC     = "gRPC"
	ProtocolHTTPS    = "https"
	ProtocolRESTJSON = "REST/JSON"
)

// DocumentTask is the default task served by the upload endpoint.
var DocumentTask = llm.Task{Name: "DocumentExtraction"}

// DocumentSchema pulls the overview sections out of a system design document.
var DocumentSchema = llm.MustSchema(
	llm.StringField("introduction", "An introduction extracted from the document"),
	llm.StringField("architecture_overview", "The architecture overview"),
	llm.EnumListField("communication_protocols", "", ProtocolGRPC, ProtocolHTTPS, ProtocolRESTJSON),
)
