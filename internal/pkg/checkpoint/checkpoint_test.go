package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/vocab"
)

func testBundle(t *testing.T) *Bundle {
	v, err := vocab.Build(conll.Sentences{{
		{Form: "dog", PosTag: "NN", Head: 2, DepRel: "nsubj"},
		{Form: "ran", PosTag: "VB", Head: 0, DepRel: "root"},
	}}, 1)
	assert.Nil(t, err)
	return &Bundle{
		Config: Config{Tree: true, Proj: false, Punct: true, Buckets: 8,
			Budget: 5000, ModelName: "dp", ModelVersion: 2},
		Vocab: v,
		Model: []byte("olia model bytes"),
	}
}

func TestRoundTrip(t *testing.T) {
	b := testBundle(t)
	path := filepath.Join(t.TempDir(), "model.dep")
	assert.Nil(t, b.Save(path))
	b1, err := Load(path)
	assert.Nil(t, err)
	assert.Equal(t, b.Config, b1.Config)
	assert.Equal(t, b.Model, b1.Model)
	assert.Equal(t, b.Vocab.WordID("dog"), b1.Vocab.WordID("dog"))
	assert.Equal(t, b.Vocab.Rels(), b1.Vocab.Rels())
}

func TestSave_Overwrites(t *testing.T) {
	b := testBundle(t)
	path := filepath.Join(t.TempDir(), "model.dep")
	assert.Nil(t, b.Save(path))
	b.Config.Tree = false
	assert.Nil(t, b.Save(path))
	b1, err := Load(path)
	assert.Nil(t, err)
	assert.False(t, b1.Config.Tree)
}

func TestSave_NoTempLeftover(t *testing.T) {
	b := testBundle(t)
	dir := t.TempDir()
	assert.Nil(t, b.Save(filepath.Join(dir, "model.dep")))
	files, err := os.ReadDir(dir)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(files))
}

func TestSave_FailsOnNoVocab(t *testing.T) {
	b := testBundle(t)
	b.Vocab = nil
	assert.NotNil(t, b.Save(filepath.Join(t.TempDir(), "model.dep")))
}

func TestLoad_FailsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "olia.dep"))
	assert.NotNil(t, err)
}

func TestLoad_FailsOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "olia.dep")
	assert.Nil(t, os.WriteFile(path, []byte("not a checkpoint"), 0644))
	_, err := Load(path)
	assert.NotNil(t, err)
}
