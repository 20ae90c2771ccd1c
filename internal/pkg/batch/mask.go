package batch

import "bitbucket.org/airenas/depgo/internal/pkg/vocab"

//Mask returns a boolean grid of the batch shape, true at real token
//positions. Padding and the root placeholder at position 0 are masked out.
//The mask is derived per batch, shapes differ between batches
func Mask(b *Batch) [][]bool {
	res := make([][]bool, b.Size())
	for i, row := range b.Words {
		res[i] = make([]bool, len(row))
		for j, w := range row {
			res[i][j] = j > 0 && w != vocab.PadID
		}
	}
	return res
}

//MaskExcluding narrows the validity mask by a punctuation id set.
//Used by the metric path only, decoding keeps punctuation positions
func MaskExcluding(b *Batch, puncts map[int]bool) [][]bool {
	res := Mask(b)
	for i, row := range b.Words {
		for j, w := range row {
			if puncts[w] {
				res[i][j] = false
			}
		}
	}
	return res
}
