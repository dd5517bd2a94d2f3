package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Splitter names accepted by NewSplitter.
const (
	SplitterPunkt  = "punkt"
	SplitterRegexp = "regexp"
)

// NewSplitter returns the splitter registered under name.
func NewSplitter(name string) (SentenceSplitter, error) {
	switch strings.ToLower(name) {
	case "", SplitterPunkt:
		return NewPunktSplitter()
	case SplitterRegexp:
		return NewRegexpSplitter(), nil
	default:
		return nil, fmt.Errorf("unknown sentence splitter %q", name)
	}
}

// PunktSplitter uses the unsupervised punkt model trained for English, which
// knows common abbreviations ("Dr.", "e.g.") and does not break on them.
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the bundled English punkt model.
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load punkt model: %w", err)
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

// Split implements SentenceSplitter.
func (s *PunktSplitter) Split(text string) []string {
	tokens := s.tokenizer.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Text)
	}
	return out
}

// RegexpSplitter breaks on runs of terminal punctuation. Trailing text
// without punctuation becomes the last sentence.
type RegexpSplitter struct {
	pattern *regexp.Regexp
}

func NewRegexpSplitter() *RegexpSplitter {
	return &RegexpSplitter{pattern: regexp.MustCompile(`[^.!?]+[.!?]+`)}
}

// Split implements SentenceSplitter.
func (s *RegexpSplitter) Split(text string) []string {
	locs := s.pattern.FindAllStringIndex(text, -1)
	out := make([]string, 0, len(locs)+1)
	end := 0
	for _, loc := range locs {
		out = append(out, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
