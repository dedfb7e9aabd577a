package markdown

import (
	"encoding/json"

	"github.com/pkg/errors"

	"kbedit/internal/domain"
)

// DocumentVersion is the current structured document format.
const DocumentVersion = 1

type document struct {
	Version int            `json:"version"`
	Blocks  []domain.Block `json:"blocks"`
}

// EncodeDocument serializes blocks into the structured document envelope.
func EncodeDocument(blocks []domain.Block) (string, error) {
	data, err := json.Marshal(document{Version: DocumentVersion, Blocks: blocks})
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(data), nil
}

// DecodeDocument parses a structured document and checks the block sequence
// is non-empty, has unique ids and valid variant shapes.
func DecodeDocument(data string) ([]domain.Block, error) {
	var doc document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	if doc.Version != DocumentVersion {
		return nil, errors.Errorf("unsupported document version %d", doc.Version)
	}
	if len(doc.Blocks) == 0 {
		return nil, errors.New("document has no blocks")
	}

	seen := make(map[string]struct{}, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if b.ID == "" {
			return nil, errors.Errorf("block of type %s has no id", b.Type)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, errors.Errorf("duplicate block id %s", b.ID)
		}
		seen[b.ID] = struct{}{}
		if err := domain.Validate(b); err != nil {
			return nil, errors.Wrapf(err, "block %s", b.ID)
		}
	}
	return doc.Blocks, nil
}

// Load builds the initial block sequence for an editing session. The
// structured document wins when present and valid; otherwise the flat text
// goes through FromText. The returned error reports a structured document
// that was present but unusable, in which case the flat fallback is still
// returned.
func Load(content, structured string) ([]domain.Block, error) {
	if structured == "" {
		return FromText(content), nil
	}
	blocks, err := DecodeDocument(structured)
	if err != nil {
		return FromText(content), err
	}
	return blocks, nil
}
