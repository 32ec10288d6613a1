package content

import (
	"strings"

	"github.com/muratoffalex/linkreader/internal/logger"
)

type Normalizer struct {
	logger logger.Logger
}

func NewNormalizer(l logger.Logger) *Normalizer {
	return &Normalizer{logger: l}
}

// Normalize turns raw strategy output into clean text: HTML is converted to
// markdown, inline base64 images are dropped, the common indentation is
// removed and surrounding whitespace trimmed. The same input always yields
// the same output.
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	if IsHTML(text) {
		markdown, err := HTMLToMarkdown(text)
		if err != nil {
			n.logger.WithError(err).Debug("HTML conversion failed, keeping raw text")
		} else {
			text = markdown
		}
	}

	text = StripBase64Images(text)
	text = Dedent(text)
	return strings.TrimSpace(text)
}
