// Package model implements the trained-embedding file format: a text
// header line (vocab_size, dimension) followed by one record per
// vocabulary entry, either as raw little-endian float32s (binary mode) or
// space-separated decimal text (spec §4.8). The binary codec itself is
// adapted near-verbatim from the teacher's vector byte (de)serialization,
// since the wire contract ("raw little-endian 32-bit floats, no
// separator") is identical.
package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"vecforge/internal/params"
	"vecforge/internal/vocab"
)

// ErrTruncatedRead is returned when a binary record ends before its
// declared dimension is fully read (spec §7's TruncatedRead cause).
var ErrTruncatedRead = fmt.Errorf("model: truncated binary record")

// WriteVectors writes one row per vocabulary entry from mat, in
// vocabulary order, in the format spec.md §4.8/§6 describes.
func WriteVectors(w io.Writer, v *vocab.Vocabulary, mat *params.Matrix, binary_ bool) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", v.Size(), mat.Dim()); err != nil {
		return err
	}
	for i := 0; i < v.Size(); i++ {
		if _, err := fmt.Fprintf(bw, "%s ", v.Entry(i).Text); err != nil {
			return err
		}
		row := mat.Row(i)
		if binary_ {
			if err := writeBinaryRow(bw, row); err != nil {
				return err
			}
		} else {
			if err := writeTextRow(bw, row); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeBinaryRow(w *bufio.Writer, row []float32) error {
	var buf [4]byte
	for _, f := range row {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeTextRow(w *bufio.Writer, row []float32) error {
	for i, f := range row {
		if i > 0 {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%f", float64(f)); err != nil {
			return err
		}
	}
	return nil
}

// Vectors is an in-memory decoded model, used by cmd/distance and by this
// package's round-trip tests.
type Vectors struct {
	Tokens []string
	Rows   [][]float32
	Dim    int
}

// ReadVectors parses a model file written by WriteVectors, auto-detecting
// binary vs. text rows from the header alone is not possible (the format
// doesn't self-describe), so callers must say which mode they expect.
func ReadVectors(r io.Reader, binary_ bool) (*Vectors, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("model: reading header: %w", err)
	}
	var vocabSize, dim int
	if _, err := fmt.Sscanf(strings.TrimSpace(header), "%d %d", &vocabSize, &dim); err != nil {
		return nil, fmt.Errorf("model: malformed header %q: %w", header, err)
	}

	out := &Vectors{
		Tokens: make([]string, vocabSize),
		Rows:   make([][]float32, vocabSize),
		Dim:    dim,
	}

	for i := 0; i < vocabSize; i++ {
		token, err := br.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("model: reading token %d: %w", i, err)
		}
		token = strings.TrimSuffix(token, " ")
		out.Tokens[i] = token

		row := make([]float32, dim)
		if binary_ {
			if err := readBinaryRow(br, row); err != nil {
				return nil, fmt.Errorf("model: entry %d: %w", i, err)
			}
			// Consume the trailing newline.
			if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
				return nil, fmt.Errorf("model: entry %d: %w", i, err)
			}
		} else {
			line, err := br.ReadString('\n')
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("model: entry %d: %w", i, err)
			}
			if err := readTextRow(line, row); err != nil {
				return nil, fmt.Errorf("model: entry %d: %w", i, err)
			}
		}
		out.Rows[i] = row
	}

	return out, nil
}

func readBinaryRow(r *bufio.Reader, row []float32) error {
	var buf [4]byte
	for i := range row {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return ErrTruncatedRead
			}
			return err
		}
		row[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}
	return nil
}

func readTextRow(line string, row []float32) error {
	fields := strings.Fields(line)
	if len(fields) < len(row) {
		return ErrTruncatedRead
	}
	for i := range row {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTruncatedRead, err)
		}
		row[i] = float32(f)
	}
	return nil
}

// WriteClusters writes the -classes output format: one line per
// vocabulary entry, "<token> <cluster-id>\n", replacing the vector rows
// WriteVectors would otherwise emit (spec §6.4).
func WriteClusters(w io.Writer, v *vocab.Vocabulary, clusterOf []int) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < v.Size(); i++ {
		if _, err := fmt.Fprintf(bw, "%s %d\n", v.Entry(i).Text, clusterOf[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
