package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/vocab"
)

func initTestVocab(t *testing.T) *vocab.Vocabulary {
	v, err := vocab.Build(conll.Sentences{
		{
			{Form: "The", PosTag: "DT", Head: 2, DepRel: "det"},
			{Form: "dog", PosTag: "NN", Head: 3, DepRel: "nsubj"},
			{Form: "ran", PosTag: "VB", Head: 0, DepRel: "root"},
			{Form: ".", PosTag: ".", Head: 3, DepRel: "punct"},
		},
	}, 1)
	assert.Nil(t, err)
	return v
}

func testSentences(lens ...int) conll.Sentences {
	res := make(conll.Sentences, 0, len(lens))
	for _, l := range lens {
		s := make(conll.Sentence, l)
		for i := 0; i < l; i++ {
			s[i] = conll.Token{Form: fmt.Sprintf("w%d", i), Head: 0, DepRel: "root"}
		}
		res = append(res, s)
	}
	return res
}

func TestBuilder_FailsOnWrongParams(t *testing.T) {
	v := initTestVocab(t)
	_, err := NewBuilder(nil, 2, 100)
	assert.NotNil(t, err)
	_, err = NewBuilder(v, 0, 100)
	assert.NotNil(t, err)
	_, err = NewBuilder(v, 2, 0)
	assert.NotNil(t, err)
}

func TestBuild_FailsOnEmptyInput(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 2, 100)
	_, err := b.Build(conll.Sentences{})
	assert.Equal(t, ErrEmptyInput, err)
}

func TestBuild_RootAdded(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 1, 100)
	batches, err := b.Build(conll.Sentences{{
		{Form: "The", PosTag: "DT", Head: 2, DepRel: "det"},
		{Form: "dog", PosTag: "NN", Head: 3, DepRel: "nsubj"},
		{Form: "ran", PosTag: "VB", Head: 0, DepRel: "root"},
	}})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, vocab.RootID, batches[0].Words[0][0])
	assert.Equal(t, 4, batches[0].MaxLen())
	assert.Equal(t, []int{3}, batches[0].Lens)
	assert.Equal(t, 2, batches[0].Heads[0][1])
	assert.Equal(t, v.RelID("nsubj"), batches[0].Rels[0][2])
}

func TestBuild_Padding(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 1, 100)
	batches, err := b.Build(testSentences(3, 1))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, 4, batches[0].MaxLen())
	assert.Equal(t, vocab.PadID, batches[0].Words[1][2])
	assert.Equal(t, conll.NoHead, batches[0].Heads[1][2])
}

func TestBuild_BudgetRespected(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 2, 12)
	batches, err := b.Build(testSentences(5, 5, 5, 5, 2, 2, 2))
	assert.Nil(t, err)
	for _, batch := range batches {
		assert.True(t, batch.MaxLen()*batch.Size() <= 12,
			"batch %dx%d over budget", batch.Size(), batch.MaxLen())
	}
}

func TestBuild_OversizedSentenceStillBatched(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 1, 3)
	batches, err := b.Build(testSentences(10))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, 1, batches[0].Size())
}

func TestBuild_AllSentencesOnce(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 3, 20)
	sentences := testSentences(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 3, 3, 3)
	batches, err := b.Build(sentences)
	assert.Nil(t, err)
	seen := make(map[int]int)
	for _, batch := range batches {
		for i, si := range batch.Order {
			seen[si]++
			assert.Equal(t, len(sentences[si]), batch.Lens[i])
		}
	}
	assert.Equal(t, len(sentences), len(seen))
	for si, c := range seen {
		assert.Equal(t, 1, c, "sentence %d seen %d times", si, c)
	}
}

func TestCluster_BucketCount(t *testing.T) {
	groups := cluster([]int{2, 2, 2, 10, 10, 11, 30, 31, 30}, 3)
	assert.Equal(t, 3, len(groups))
	groups = cluster([]int{2, 3}, 8)
	assert.True(t, len(groups) <= 2)
}

func TestMask(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 1, 100)
	batches, err := b.Build(testSentences(3, 1))
	assert.Nil(t, err)
	m := Mask(batches[0])
	assert.Equal(t, []bool{false, true, true, true}, m[0])
	assert.Equal(t, []bool{false, true, false, false}, m[1])
}

func TestMaskExcluding(t *testing.T) {
	v := initTestVocab(t)
	b, _ := NewBuilder(v, 1, 100)
	batches, err := b.Build(conll.Sentences{{
		{Form: "dog", PosTag: "NN", Head: 2, DepRel: "nsubj"},
		{Form: "ran", PosTag: "VB", Head: 0, DepRel: "root"},
		{Form: ".", PosTag: ".", Head: 2, DepRel: "punct"},
	}})
	assert.Nil(t, err)
	m := MaskExcluding(batches[0], v.PunctIDs())
	assert.Equal(t, []bool{false, true, true, false}, m[0])
}
