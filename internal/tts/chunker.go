package tts

// TextChunk is one bounded-length slice of the input text, sized to fit a
// single synthesis call.
type TextChunk struct {
	Index      int
	TokenCount int
	Content    string
}

// Chunker splits text into chunks of at most maxTokens sub-word tokens,
// keeping the budget below the speech model's hard ceiling.
type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
}

func NewChunker(tokenizer Tokenizer, maxTokens int) *Chunker {
	return &Chunker{tokenizer: tokenizer, maxTokens: maxTokens}
}

// Chunk encodes the text, slices the token sequence into contiguous runs of
// at most the configured budget, and decodes each run back to text.
//
// Boundaries fall strictly on token counts, never on sentence or paragraph
// breaks, so a chunk may end mid-sentence. Concatenating all chunks in index
// order re-encodes to the original token sequence; the decoded bytes are not
// guaranteed identical at run edges for every encoding.
//
// Empty input yields no chunks.
func (c *Chunker) Chunk(text string) ([]TextChunk, error) {
	tokens, err := c.tokenizer.Encode(text)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}

	var chunks []TextChunk
	for start := 0; start < len(tokens); start += c.maxTokens {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		run := tokens[start:end]
		content, err := c.tokenizer.Decode(run)
		if err != nil {
			return nil, &EncodingError{Err: err}
		}

		chunks = append(chunks, TextChunk{
			Index:      len(chunks),
			TokenCount: len(run),
			Content:    content,
		})
	}

	return chunks, nil
}
