package protocol

import (
	"encoding/json"
	"fmt"
)

// Role is the sender or recipient of a message in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Annotations are optional hints a content item carries for the client
// about who it's for and how important it is.
type Annotations struct {
	Audience []Role  `json:"audience,omitempty"`
	Priority float64 `json:"priority,omitempty"`
}

// Content is the tagged union of things a tool result, prompt message, or
// sampling message can carry: text, an image, or an embedded resource.
// The discriminator is the Type field, always emitted first.
type Content struct {
	Type        string            `json:"type"`
	Text        string            `json:"text,omitempty"`
	Data        string            `json:"data,omitempty"`        // base64, for image
	MimeType    string            `json:"mimeType,omitempty"`    // for image
	Resource    *ResourceContents `json:"resource,omitempty"`    // for embedded resource
	Annotations *Annotations      `json:"annotations,omitempty"`
}

// TextContent builds a Content of type "text".
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// ImageContent builds a Content of type "image" carrying base64 data.
func ImageContent(data, mimeType string) Content {
	return Content{Type: "image", Data: data, MimeType: mimeType}
}

// EmbeddedResourceContent builds a Content of type "resource" wrapping a
// ResourceContents value.
func EmbeddedResourceContent(r ResourceContents) Content {
	return Content{Type: "resource", Resource: &r}
}

// ResourceContents is the tagged union carried by an embedded resource or
// a resources/read result entry: either text or a base64 blob.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// IsBlob reports whether this resource content carries binary (blob) data
// rather than text.
func (r ResourceContents) IsBlob() bool {
	return r.Blob != ""
}

// validate checks that the discriminator-implied fields are self-consistent.
// Used defensively when constructing content by hand rather than via the
// constructors above (e.g. after json.Unmarshal from an untrusted peer).
func (c Content) validate() error {
	switch c.Type {
	case "text", "image", "resource":
		return nil
	default:
		return fmt.Errorf("unknown content type %q", c.Type)
	}
}

// UnmarshalJSON enforces that unknown content "type" discriminators are
// reported rather than silently accepted as zero values.
func (c *Content) UnmarshalJSON(data []byte) error {
	type alias Content
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Content(a)
	return c.validate()
}
