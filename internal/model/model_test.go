package model

import (
	"bytes"
	"testing"

	"vecforge/internal/params"
	"vecforge/internal/vocab"
)

func buildFixture() (*vocab.Vocabulary, *params.Matrix) {
	v := vocab.New(64)
	for _, tok := range []string{"the", "quick", "brown", "fox"} {
		v.Add(tok)
	}
	v.SortAndPrune(1)

	mat := params.NewMatrix(v.Size(), 4, 16)
	params.InitUniform(mat, 1)
	return v, mat
}

func TestWriteReadBinaryRoundTrip(t *testing.T) {
	v, mat := buildFixture()
	var buf bytes.Buffer
	if err := WriteVectors(&buf, v, mat, true); err != nil {
		t.Fatalf("WriteVectors: %v", err)
	}

	got, err := ReadVectors(&buf, true)
	if err != nil {
		t.Fatalf("ReadVectors: %v", err)
	}
	if len(got.Tokens) != v.Size() {
		t.Fatalf("got %d tokens, want %d", len(got.Tokens), v.Size())
	}
	for i := 0; i < v.Size(); i++ {
		if got.Tokens[i] != v.Entry(i).Text {
			t.Errorf("token %d = %q, want %q", i, got.Tokens[i], v.Entry(i).Text)
		}
		want := mat.Row(i)
		for d := range want {
			if got.Rows[i][d] != want[d] {
				t.Errorf("entry %d dim %d = %v, want %v", i, d, got.Rows[i][d], want[d])
			}
		}
	}
}

func TestWriteReadTextRoundTripWithinTolerance(t *testing.T) {
	v, mat := buildFixture()
	var buf bytes.Buffer
	if err := WriteVectors(&buf, v, mat, false); err != nil {
		t.Fatalf("WriteVectors: %v", err)
	}

	got, err := ReadVectors(&buf, false)
	if err != nil {
		t.Fatalf("ReadVectors: %v", err)
	}
	for i := 0; i < v.Size(); i++ {
		want := mat.Row(i)
		for d := range want {
			diff := float64(got.Rows[i][d]) - float64(want[d])
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-6 {
				t.Errorf("entry %d dim %d: |%v - %v| = %v, exceeds 1e-6", i, d, got.Rows[i][d], want[d], diff)
			}
		}
	}
}

func TestBinaryAndTextAgreeWithinTolerance(t *testing.T) {
	v, mat := buildFixture()

	var binBuf, textBuf bytes.Buffer
	if err := WriteVectors(&binBuf, v, mat, true); err != nil {
		t.Fatalf("WriteVectors(binary): %v", err)
	}
	if err := WriteVectors(&textBuf, v, mat, false); err != nil {
		t.Fatalf("WriteVectors(text): %v", err)
	}

	binModel, err := ReadVectors(&binBuf, true)
	if err != nil {
		t.Fatalf("ReadVectors(binary): %v", err)
	}
	textModel, err := ReadVectors(&textBuf, false)
	if err != nil {
		t.Fatalf("ReadVectors(text): %v", err)
	}

	for i := range binModel.Rows {
		for d := range binModel.Rows[i] {
			diff := float64(binModel.Rows[i][d]) - float64(textModel.Rows[i][d])
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-6 {
				t.Errorf("entry %d dim %d differ beyond 1e-6: bin=%v text=%v", i, d, binModel.Rows[i][d], textModel.Rows[i][d])
			}
		}
	}
}

func TestReadVectorsDetectsTruncatedBinaryRecord(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("1 4\ntoken ")
	buf.Write([]byte{0, 0, 0, 0}) // only one float instead of four

	_, err := ReadVectors(&buf, true)
	if err == nil {
		t.Fatal("expected truncated-read error")
	}
}

func TestWriteReadClusters(t *testing.T) {
	v := vocab.New(16)
	for _, tok := range []string{"a", "b", "c"} {
		v.Add(tok)
	}
	v.SortAndPrune(1)

	clusters := make([]int, v.Size())
	for i := range clusters {
		clusters[i] = i % 2
	}

	var buf bytes.Buffer
	if err := WriteClusters(&buf, v, clusters); err != nil {
		t.Fatalf("WriteClusters: %v", err)
	}

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) != v.Size() {
		t.Fatalf("got %d lines, want %d", len(lines), v.Size())
	}
}
