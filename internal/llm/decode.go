package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// DecodeProposal validates raw model output against the matrix schema. When
// strict validation fails the document is sanitized and validated again.
func DecodeProposal(raw []byte, logger *slog.Logger) (MatrixProposal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw = bytes.TrimSpace(raw)
	doc := raw
	if err := ValidateProposal(raw); err != nil {
		cleaned, dropped, sErr := SanitizeProposal(raw, logger)
		if sErr != nil {
			return MatrixProposal{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateProposal(cleaned); vErr != nil {
			return MatrixProposal{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("llm.enrich.lenient_sanitize_applied", "dropped", len(dropped), "strict_error", err)
		doc = cleaned
	}

	var out MatrixProposal
	if err := json.Unmarshal(doc, &out); err != nil {
		return MatrixProposal{}, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return out, nil
}
