// Package corpus implements the per-worker corpus reader: a whitespace
// tokenizer, byte-offset sharding so each training worker reads its own
// slice of the file, and sentence assembly with frequency-based
// subsampling (spec §4.6).
package corpus

import (
	"bufio"
	"io"
	"os"

	"vecforge/internal/vocab"
)

// MaxWordLength caps a single token's byte length; longer tokens are
// truncated, matching the reference's fixed-size word buffer.
const MaxWordLength = 100

// MaxSentenceLength caps the number of token indices assembled into one
// training sentence, matching the reference's MAX_SENTENCE_LENGTH.
const MaxSentenceLength = 1000

// Reader tokenizes a single worker's shard of a corpus file.
type Reader struct {
	file *os.File
	br   *bufio.Reader
}

// Open opens path for reading and wraps it in a buffered tokenizer.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, br: bufio.NewReaderSize(f, 1<<16)}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.file.Close() }

// Seek repositions the reader at the given byte offset, matching a
// worker's `file_size * k / T` shard start, and drops any buffered bytes
// from before the seek. The token straddling the seek point is read
// partially, exactly as the reference does — it is generally OOV or
// harmless since sentence boundaries resynchronize on the next `</s>`.
func (r *Reader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.br.Reset(r.file)
	return nil
}

// Size returns the total file size in bytes, used by callers to compute
// per-worker shard offsets.
func (r *Reader) Size() (int64, error) {
	info, err := r.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReadWord returns the next whitespace-delimited token. A literal newline
// yields the </s> token. Carriage returns are skipped. io.EOF is returned
// once no more bytes remain and no token was assembled.
func (r *Reader) ReadWord() (string, error) {
	var buf []byte
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if len(buf) > 0 {
				return string(buf), nil
			}
			return "", err
		}
		switch b {
		case '\r':
			continue
		case '\n':
			if len(buf) == 0 {
				return vocab.EndOfSentence, nil
			}
			// Put the newline back so the next call emits </s>.
			_ = r.br.UnreadByte()
			return string(buf), nil
		case ' ', '\t':
			if len(buf) == 0 {
				continue
			}
			return string(buf), nil
		default:
			if len(buf) < MaxWordLength {
				buf = append(buf, b)
			}
		}
	}
}

// oovIndex is the sentinel ReadIndex returns for a token absent from the
// vocabulary; callers treat it as "skip".
const oovIndex = int32(-1)

// ReadIndex reads the next token and resolves it to a vocabulary index,
// returning oovIndex for tokens the vocabulary never saw.
func (r *Reader) ReadIndex(v *vocab.Vocabulary) (int32, error) {
	word, err := r.ReadWord()
	if err != nil {
		return 0, err
	}
	if idx, ok := v.Find(word); ok {
		return int32(idx), nil
	}
	return oovIndex, nil
}
