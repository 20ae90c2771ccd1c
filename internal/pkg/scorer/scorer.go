package scorer

import (
	"context"

	"github.com/pkg/errors"

	"bitbucket.org/airenas/depgo/internal/pkg/batch"
)

//ErrShapeMismatch indicates score/mask shape disagreement,
//a scorer or masking contract violation
var ErrShapeMismatch = errors.New("Score and mask shapes disagree")

//Scores keeps per batch score tensors.
//Arc[i][d][h] is the score of head h for dependent d of sentence i.
//Rel[i][d][h][r] is the score of relation r given that head choice
type Scores struct {
	Arc [][][]float64
	Rel [][][][]float64
}

//Scorer produces score tensors for a batch. It is treated as an opaque
//pure function per batch
type Scorer interface {
	Score(ctx context.Context, b *batch.Batch) (*Scores, error)
}

//Validate checks the score tensors against the mask shape
func (s *Scores) Validate(mask [][]bool) error {
	if len(s.Arc) != len(mask) || len(s.Rel) != len(mask) {
		return errors.Wrapf(ErrShapeMismatch, "batch size %d vs mask %d", len(s.Arc), len(mask))
	}
	for i, row := range mask {
		l := len(row)
		if len(s.Arc[i]) != l || len(s.Rel[i]) != l {
			return errors.Wrapf(ErrShapeMismatch, "sentence %d length %d vs mask %d", i, len(s.Arc[i]), l)
		}
		for d := 0; d < l; d++ {
			if len(s.Arc[i][d]) != l || len(s.Rel[i][d]) != l {
				return errors.Wrapf(ErrShapeMismatch, "sentence %d row %d", i, d)
			}
		}
	}
	return nil
}
