package store

import (
	"encoding/json"
	"fmt"

	"github.com/existflow/wbsync/internal/model"
)

func encode(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}
