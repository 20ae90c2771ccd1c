package vocab

import (
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"bitbucket.org/airenas/depgo/internal/pkg/conll"
)

//Ids of special tokens. The same convention is used for word and feature grids
const (
	PadID  = 0
	UnkID  = 1
	RootID = 2
)

const (
	padToken  = "<pad>"
	unkToken  = "<unk>"
	rootToken = "<root>"
)

//Vocabulary maps surface forms, POS features and relation labels to ids.
//Read-only during inference
type Vocabulary struct {
	words   []string
	wordIDs map[string]int
	feats   []string
	featIDs map[string]int
	rels    []string
	relIDs  map[string]int
	puncts  map[int]bool
}

type vocabData struct {
	Words []string `yaml:"words,flow"`
	Feats []string `yaml:"feats,flow"`
	Rels  []string `yaml:"rels,flow"`
}

//Build creates a vocabulary from annotated sentences.
//Words seen less than minFreq times map to unk
func Build(sentences conll.Sentences, minFreq int) (*Vocabulary, error) {
	if len(sentences) == 0 {
		return nil, errors.New("No sentences")
	}
	counts := make(map[string]int)
	feats := make(map[string]bool)
	rels := make(map[string]bool)
	for _, s := range sentences {
		for _, tok := range s {
			counts[tok.Form]++
			if tok.PosTag != "" {
				feats[tok.PosTag] = true
			}
			if tok.DepRel != "" {
				rels[tok.DepRel] = true
			}
		}
	}
	res := empty()
	for _, s := range sortedKeys(counts) {
		if counts[s] >= minFreq {
			res.addWord(s)
		}
	}
	for _, s := range sortedKeysBool(feats) {
		res.addFeat(s)
	}
	for _, s := range sortedKeysBool(rels) {
		res.addRel(s)
	}
	res.initPuncts()
	return res, nil
}

func sortedKeys(m map[string]int) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

func sortedKeysBool(m map[string]bool) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

func empty() *Vocabulary {
	res := &Vocabulary{wordIDs: make(map[string]int), featIDs: make(map[string]int),
		relIDs: make(map[string]int), puncts: make(map[int]bool)}
	for _, s := range []string{padToken, unkToken, rootToken} {
		res.addWord(s)
		res.addFeat(s)
	}
	return res
}

func (v *Vocabulary) addWord(s string) {
	if _, f := v.wordIDs[s]; !f {
		v.wordIDs[s] = len(v.words)
		v.words = append(v.words, s)
	}
}

func (v *Vocabulary) addFeat(s string) {
	if _, f := v.featIDs[s]; !f {
		v.featIDs[s] = len(v.feats)
		v.feats = append(v.feats, s)
	}
}

func (v *Vocabulary) addRel(s string) {
	if _, f := v.relIDs[s]; !f {
		v.relIDs[s] = len(v.rels)
		v.rels = append(v.rels, s)
	}
}

func (v *Vocabulary) initPuncts() {
	v.puncts = make(map[int]bool)
	for i, s := range v.words {
		if i >= RootID+1 && isPunct(s) {
			v.puncts[i] = true
		}
	}
}

func isPunct(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}

//WordID maps a surface form to its id, unk if unknown
func (v *Vocabulary) WordID(s string) int {
	if id, f := v.wordIDs[s]; f {
		return id
	}
	if id, f := v.wordIDs[strings.ToLower(s)]; f {
		return id
	}
	return UnkID
}

//FeatID maps a POS feature to its id, unk if unknown
func (v *Vocabulary) FeatID(s string) int {
	if id, f := v.featIDs[s]; f {
		return id
	}
	return UnkID
}

//RelID maps a relation label to its id, -1 if unknown
func (v *Vocabulary) RelID(s string) int {
	if id, f := v.relIDs[s]; f {
		return id
	}
	return -1
}

//Rel maps a relation id back to its label
func (v *Vocabulary) Rel(id int) string {
	if id < 0 || id >= len(v.rels) {
		return ""
	}
	return v.rels[id]
}

//Rels returns the relation label count
func (v *Vocabulary) Rels() int {
	return len(v.rels)
}

//Words returns the word count
func (v *Vocabulary) Words() int {
	return len(v.words)
}

//PunctIDs returns ids of tokens consisting of punctuation only
func (v *Vocabulary) PunctIDs() map[int]bool {
	return v.puncts
}

//Write serializes the vocabulary as yaml
func (v *Vocabulary) Write(writer io.Writer) error {
	d := vocabData{Words: v.words[RootID+1:], Feats: v.feats[RootID+1:], Rels: v.rels}
	err := yaml.NewEncoder(writer).Encode(&d)
	if err != nil {
		return errors.Wrap(err, "Cannot encode vocabulary")
	}
	return nil
}

//ReadVocab deserializes a vocabulary written by Write
func ReadVocab(reader io.Reader) (*Vocabulary, error) {
	d := vocabData{}
	err := yaml.NewDecoder(reader).Decode(&d)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot decode vocabulary")
	}
	res := empty()
	for _, s := range d.Words {
		res.addWord(s)
	}
	for _, s := range d.Feats {
		res.addFeat(s)
	}
	for _, s := range d.Rels {
		res.addRel(s)
	}
	res.initPuncts()
	return res, nil
}
