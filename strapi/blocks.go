package strapi

import "strings"

// Blocks is the CMS's structured rich-text representation: an array of
// paragraph nodes with child text nodes. Free-text member fields (bio,
// project descriptions) are stored in this shape.
type Blocks []Block

// Block is a single rich-text node.
type Block struct {
	Type     string  `json:"type"`
	Children []Child `json:"children"`
}

// Child is a leaf text node inside a block.
type Child struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextToBlocks wraps a plain string into a single-paragraph block array.
// Callers must not pass empty strings: an empty block array would overwrite
// existing content, so blank input means "omit the field".
func TextToBlocks(s string) Blocks {
	return Blocks{
		{
			Type: "paragraph",
			Children: []Child{
				{Type: "text", Text: s},
			},
		},
	}
}

// PlainText flattens the block array into a plain string, joining paragraphs
// with newlines. Used to sanitize member payloads before they leave the API.
func (b Blocks) PlainText() string {
	if len(b) == 0 {
		return ""
	}

	paragraphs := make([]string, 0, len(b))
	for _, block := range b {
		var sb strings.Builder
		for _, child := range block.Children {
			sb.WriteString(child.Text)
		}
		paragraphs = append(paragraphs, sb.String())
	}
	return strings.Join(paragraphs, "\n")
}
