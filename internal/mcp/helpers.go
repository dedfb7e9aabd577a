package mcpserver

import (
	"encoding/json"
	"fmt"

	"kbedit/internal/domain"
)

// parseContent decodes a tool's content argument for block type t.
// Text-bearing types also accept the raw string when it is not a JSON string.
func parseContent(t domain.BlockType, raw string) (domain.Content, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := domain.DecodeContent(t, json.RawMessage(raw))
	if err == nil {
		return c, nil
	}
	switch t {
	case domain.BlockTypeParagraph, domain.BlockTypeHeading, domain.BlockTypeQuote,
		domain.BlockTypeCode, domain.BlockTypeCallout:
		return domain.Text(raw), nil
	}
	return nil, fmt.Errorf("content: %w", err)
}

// parseMeta decodes a tool's meta argument for block type t.
func parseMeta(t domain.BlockType, raw string) (domain.Meta, error) {
	if raw == "" {
		return nil, nil
	}
	m, err := domain.DecodeMeta(t, json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("meta: %w", err)
	}
	return m, nil
}
