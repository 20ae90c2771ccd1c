package checkpoint

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"bitbucket.org/airenas/depgo/internal/pkg/vocab"
)

const (
	configEntry = "config.yaml"
	vocabEntry  = "vocab.yaml"
	modelEntry  = "model.bin"
)

//Config keeps the parsing configuration stored with a model.
//It round-trips through save/load without loss
type Config struct {
	Tree         bool   `yaml:"tree"`
	Proj         bool   `yaml:"proj"`
	Punct        bool   `yaml:"punct"`
	Buckets      int    `yaml:"buckets"`
	Budget       int    `yaml:"budget"`
	ModelName    string `yaml:"modelName"`
	ModelVersion int    `yaml:"modelVersion"`
}

//Bundle is one checkpoint: scorer parameters, vocabulary and config
type Bundle struct {
	Config Config
	Vocab  *vocab.Vocabulary
	Model  []byte
}

//Save writes the bundle as one gzipped tar file. The write is atomic,
//a temp file is renamed over the target
func (b *Bundle) Save(path string) error {
	if b.Vocab == nil {
		return errors.New("No vocabulary in bundle")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".checkpoint-*")
	if err != nil {
		return errors.Wrap(err, "Cannot create temp file")
	}
	defer os.Remove(tmp.Name())
	err = b.write(tmp)
	if errC := tmp.Close(); err == nil {
		err = errC
	}
	if err != nil {
		return errors.Wrap(err, "Cannot write checkpoint")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "Cannot move checkpoint in place")
	}
	return nil
}

func (b *Bundle) write(w io.Writer) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	cfg, err := yaml.Marshal(&b.Config)
	if err != nil {
		return errors.Wrap(err, "Cannot encode config")
	}
	if err := writeEntry(tw, configEntry, cfg); err != nil {
		return err
	}
	var vb bytes.Buffer
	if err := b.Vocab.Write(&vb); err != nil {
		return err
	}
	if err := writeEntry(tw, vocabEntry, vb.Bytes()); err != nil {
		return err
	}
	if err := writeEntry(tw, modelEntry, b.Model); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "Cannot finish tar")
	}
	return gz.Close()
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(data))})
	if err != nil {
		return errors.Wrapf(err, "Cannot write %s header", name)
	}
	if _, err := tw.Write(data); err != nil {
		return errors.Wrapf(err, "Cannot write %s", name)
	}
	return nil
}

//Load reads a bundle written by Save
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot open checkpoint")
	}
	defer f.Close()
	return read(f)
}

func read(r io.Reader) (*Bundle, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "Not a gzip file")
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	res := &Bundle{}
	seen := make(map[string]bool)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "Cannot read tar")
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot read %s", h.Name)
		}
		seen[h.Name] = true
		switch h.Name {
		case configEntry:
			if err := yaml.Unmarshal(data, &res.Config); err != nil {
				return nil, errors.Wrap(err, "Cannot decode config")
			}
		case vocabEntry:
			res.Vocab, err = vocab.ReadVocab(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
		case modelEntry:
			res.Model = data
		}
	}
	for _, name := range []string{configEntry, vocabEntry, modelEntry} {
		if !seen[name] {
			return nil, errors.Errorf("No %s in checkpoint", name)
		}
	}
	return res, nil
}
