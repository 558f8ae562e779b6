package config

import (
	"errors"
	"testing"
)

func validBase() Config {
	c := Default(true)
	c.TrainFile = "corpus.txt"
	c.OutputFile = "vectors.bin"
	return c
}

func TestDefaultCBOWAndSkipGramAlphaDiffer(t *testing.T) {
	cbow := Default(true)
	sg := Default(false)
	if cbow.Alpha != 0.05 {
		t.Errorf("cbow default alpha = %g, want 0.05", cbow.Alpha)
	}
	if sg.Alpha != 0.025 {
		t.Errorf("skip-gram default alpha = %g, want 0.025", sg.Alpha)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validBase().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingInput(t *testing.T) {
	c := validBase()
	c.TrainFile = ""
	c.ReadVocabFile = ""
	if err := c.Validate(); !errors.Is(err, ErrInputMissing) {
		t.Errorf("Validate = %v, want ErrInputMissing", err)
	}
}

func TestValidateRejectsNoObjective(t *testing.T) {
	c := validBase()
	c.HierarchicalSoftmax = false
	c.Negative = 0
	if err := c.Validate(); !errors.Is(err, ErrBadNumericArg) {
		t.Errorf("Validate = %v, want ErrBadNumericArg", err)
	}
}

func TestValidateRejectsBadAlign(t *testing.T) {
	for _, align := range []int{0, 8, 15, 100} {
		c := validBase()
		c.RowAlign = align
		if err := c.Validate(); !errors.Is(err, ErrBadNumericArg) {
			t.Errorf("align=%d: Validate = %v, want ErrBadNumericArg", align, err)
		}
	}
}

func TestValidateAcceptsPowerOfTwoAligns(t *testing.T) {
	for _, align := range []int{16, 32, 64, 128} {
		c := validBase()
		c.RowAlign = align
		if err := c.Validate(); err != nil {
			t.Errorf("align=%d: Validate = %v, want nil", align, err)
		}
	}
}
