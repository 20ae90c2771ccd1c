package batch

import (
	"sort"

	"github.com/pkg/errors"

	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/vocab"
)

//ErrEmptyInput is returned when no sentences are supplied
var ErrEmptyInput = errors.New("No sentences supplied")

//Batch is a rectangular grid of token and feature ids padded to the
//longest sentence of the batch. Position 0 of every row is the root
//placeholder. Lens counts real tokens, the root excluded.
//Order keeps the original sentence indices for reassembly
type Batch struct {
	Order []int
	Words [][]int
	Feats [][]int
	Heads [][]int
	Rels  [][]int
	Lens  []int
}

//MaxLen returns the padded row length, the root included
func (b *Batch) MaxLen() int {
	if len(b.Words) == 0 {
		return 0
	}
	return len(b.Words[0])
}

//Size returns the sentence count
func (b *Batch) Size() int {
	return len(b.Words)
}

//Builder groups sentences of similar length into buckets and cuts
//buckets into batches limited by a token count budget
type Builder struct {
	vocab   *vocab.Vocabulary
	buckets int
	budget  int
}

//NewBuilder creates a Builder
func NewBuilder(v *vocab.Vocabulary, buckets int, budget int) (*Builder, error) {
	if v == nil {
		return nil, errors.New("No vocabulary provided")
	}
	if buckets < 1 {
		return nil, errors.Errorf("Wrong bucket count %d", buckets)
	}
	if budget < 2 {
		return nil, errors.Errorf("Wrong token budget %d", budget)
	}
	return &Builder{vocab: v, buckets: buckets, budget: budget}, nil
}

//Build partitions sentences into batches. Each sentence keeps its
//original index in Batch.Order
func (b *Builder) Build(sentences conll.Sentences) ([]*Batch, error) {
	if len(sentences) == 0 {
		return nil, ErrEmptyInput
	}
	lens := make([]int, len(sentences))
	for i, s := range sentences {
		lens[i] = len(s) + 1 // root included
	}
	buckets := cluster(lens, b.buckets)
	result := make([]*Batch, 0)
	for _, bucket := range buckets {
		maxLen := 0
		for _, si := range bucket {
			if lens[si] > maxLen {
				maxLen = lens[si]
			}
		}
		perBatch := b.budget / maxLen
		if perBatch < 1 {
			perBatch = 1
		}
		for from := 0; from < len(bucket); from += perBatch {
			to := from + perBatch
			if to > len(bucket) {
				to = len(bucket)
			}
			result = append(result, b.newBatch(sentences, bucket[from:to], lens))
		}
	}
	return result, nil
}

func (b *Builder) newBatch(sentences conll.Sentences, indices []int, lens []int) *Batch {
	maxLen := 0
	for _, si := range indices {
		if lens[si] > maxLen {
			maxLen = lens[si]
		}
	}
	res := &Batch{Order: make([]int, len(indices)),
		Words: make([][]int, len(indices)), Feats: make([][]int, len(indices)),
		Heads: make([][]int, len(indices)), Rels: make([][]int, len(indices)),
		Lens: make([]int, len(indices))}
	for i, si := range indices {
		res.Order[i] = si
		res.Lens[i] = lens[si] - 1
		res.Words[i], res.Feats[i], res.Heads[i], res.Rels[i] = b.newRows(sentences[si], maxLen)
	}
	return res
}

func (b *Builder) newRows(s conll.Sentence, maxLen int) ([]int, []int, []int, []int) {
	words := make([]int, maxLen)
	feats := make([]int, maxLen)
	heads := make([]int, maxLen)
	rels := make([]int, maxLen)
	words[0], feats[0] = vocab.RootID, vocab.RootID
	heads[0], rels[0] = conll.NoHead, -1
	for i, tok := range s {
		words[i+1] = b.vocab.WordID(tok.Form)
		feats[i+1] = b.vocab.FeatID(tok.PosTag)
		heads[i+1] = tok.Head
		rels[i+1] = b.vocab.RelID(tok.DepRel)
	}
	for i := len(s) + 1; i < maxLen; i++ {
		words[i], feats[i] = vocab.PadID, vocab.PadID
		heads[i], rels[i] = conll.NoHead, -1
	}
	return words, feats, heads, rels
}

//cluster does a 1-D k-means over sentence lengths and returns up to k
//groups of sentence indices ordered by length
func cluster(lens []int, k int) [][]int {
	indices := make([]int, len(lens))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool { return lens[indices[i]] < lens[indices[j]] })
	if k > len(indices) {
		k = len(indices)
	}
	// centroid init: spread over the sorted order
	centroids := make([]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = float64(lens[indices[(2*i+1)*len(indices)/(2*k)]])
	}
	assign := make([]int, len(indices))
	for iter := 0; iter < 32; iter++ {
		changed := false
		for i, si := range indices {
			best := nearest(centroids, float64(lens[si]))
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		sums := make([]float64, k)
		counts := make([]int, k)
		for i, si := range indices {
			sums[assign[i]] += float64(lens[si])
			counts[assign[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = sums[c] / float64(counts[c])
			}
		}
	}
	result := make([][]int, k)
	for i, si := range indices {
		result[assign[i]] = append(result[assign[i]], si)
	}
	final := make([][]int, 0, k)
	for _, group := range result {
		if len(group) > 0 {
			final = append(final, group)
		}
	}
	return final
}

func nearest(centroids []float64, v float64) int {
	best, bestDist := 0, -1.0
	for i, c := range centroids {
		d := (v - c) * (v - c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
