package parser

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gosuri/uiprogress"
	"github.com/pkg/errors"

	"bitbucket.org/airenas/depgo/internal/pkg/batch"
	"bitbucket.org/airenas/depgo/internal/pkg/checkpoint"
	"bitbucket.org/airenas/depgo/internal/pkg/cmdapp"
	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/decode"
	"bitbucket.org/airenas/depgo/internal/pkg/metric"
	"bitbucket.org/airenas/depgo/internal/pkg/scorer"
	"bitbucket.org/airenas/depgo/internal/pkg/vocab"
)

const (
	defaultBuckets = 8
	defaultBudget  = 5000
)

//Parser runs the batched inference and evaluation pipeline on top of
//a scorer and a vocabulary loaded from a checkpoint
type Parser struct {
	scorer scorer.Scorer
	vocab  *vocab.Vocabulary
	cfg    checkpoint.Config
}

//Options control one predict or evaluate call
type Options struct {
	Buckets  int
	Budget   int
	Prob     bool
	Tree     bool
	Proj     bool
	Out      string
	Progress bool
}

//Result keeps predictions reattached to the input sentences in input order
type Result struct {
	Sentences conll.Sentences
	Heads     [][]int
	Rels      [][]string
	//Probs holds per sentence head distributions, nil unless requested
	Probs [][][]float64
}

//EvalResult is an aggregate over one labeled data set
type EvalResult struct {
	UAS   float64
	LAS   float64
	Total int
}

//New creates a Parser
func New(b *checkpoint.Bundle, s scorer.Scorer) (*Parser, error) {
	if b == nil || b.Vocab == nil {
		return nil, errors.New("No checkpoint bundle provided")
	}
	if s == nil {
		return nil, errors.New("No scorer provided")
	}
	return &Parser{scorer: s, vocab: b.Vocab, cfg: b.Config}, nil
}

//Config returns the checkpoint configuration the parser was built with
func (p *Parser) Config() checkpoint.Config {
	return p.cfg
}

//Predict parses sentences and returns results in input order.
//Tree and Proj options override the checkpoint configuration
func (p *Parser) Predict(ctx context.Context, sentences conll.Sentences, opts Options) (*Result, error) {
	if opts.Proj && !opts.Tree {
		return nil, decode.ErrConfigConflict
	}
	id := uuid.New().String()
	cmdapp.Log.Infof("Predict %s: %d sent(s)", id, len(sentences))
	start := time.Now()

	batches, err := p.makeBatches(sentences, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Sentences: make(conll.Sentences, len(sentences)),
		Heads: make([][]int, len(sentences)), Rels: make([][]string, len(sentences))}
	if opts.Prob {
		res.Probs = make([][][]float64, len(sentences))
	}
	bar := newBar(opts, len(batches))
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.predictBatch(ctx, b, opts, res); err != nil {
			return nil, err
		}
		if bar != nil {
			bar.Incr()
		}
	}
	if bar != nil {
		uiprogress.Stop()
	}
	p.attach(sentences, res)
	if opts.Out != "" {
		cmdapp.Log.Infof("Saving predictions to %s", opts.Out)
		if err := conll.WriteFile(opts.Out, res.Sentences); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start)
	cmdapp.Log.Infof("Predict %s: %s elapsed, %.2f sents/s", id, elapsed,
		float64(len(sentences))/elapsed.Seconds())
	return res, nil
}

//Evaluate runs the pipeline over a labeled data set and aggregates
//attachment accuracy. Tree, projectivity and punctuation policy come
//from the checkpoint configuration
func (p *Parser) Evaluate(ctx context.Context, sentences conll.Sentences, opts Options) (*EvalResult, error) {
	if err := checkAnnotated(sentences); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	cmdapp.Log.Infof("Evaluate %s: %d sent(s)", id, len(sentences))

	batches, err := p.makeBatches(sentences, opts)
	if err != nil {
		return nil, err
	}
	m := &metric.Attachment{}
	bar := newBar(opts, len(batches))
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.evaluateBatch(ctx, b, m); err != nil {
			return nil, err
		}
		if bar != nil {
			bar.Incr()
		}
	}
	if bar != nil {
		uiprogress.Stop()
	}
	cmdapp.Log.Infof("Evaluate %s: %s", id, m)
	return &EvalResult{UAS: m.UAS(), LAS: m.LAS(), Total: m.Total()}, nil
}

func (p *Parser) makeBatches(sentences conll.Sentences, opts Options) ([]*batch.Batch, error) {
	buckets, budget := opts.Buckets, opts.Budget
	if buckets < 1 {
		buckets = p.cfg.Buckets
	}
	if buckets < 1 {
		buckets = defaultBuckets
	}
	if budget < 1 {
		budget = p.cfg.Budget
	}
	if budget < 1 {
		budget = defaultBudget
	}
	builder, err := batch.NewBuilder(p.vocab, buckets, budget)
	if err != nil {
		return nil, err
	}
	batches, err := builder.Build(sentences)
	if err != nil {
		return nil, err
	}
	cmdapp.Log.Debugf("Built %d batch(es) from %d sent(s)", len(batches), len(sentences))
	return batches, nil
}

func (p *Parser) predictBatch(ctx context.Context, b *batch.Batch, opts Options, res *Result) error {
	scores, mask, err := p.score(ctx, b)
	if err != nil {
		return err
	}
	heads, rels, err := decode.Decode(ctx, scores, mask, b.Lens,
		decode.Options{Tree: opts.Tree, Proj: opts.Proj})
	if err != nil {
		return err
	}
	var probs [][][]float64
	if opts.Prob {
		probs = decode.Probabilities(scores, b.Lens)
	}
	for i, si := range b.Order {
		res.Heads[si] = heads[i]
		res.Rels[si] = p.relLabels(rels[i])
		if opts.Prob {
			res.Probs[si] = probs[i]
		}
	}
	return nil
}

func (p *Parser) evaluateBatch(ctx context.Context, b *batch.Batch, m *metric.Attachment) error {
	scores, mask, err := p.score(ctx, b)
	if err != nil {
		return err
	}
	heads, rels, err := decode.Decode(ctx, scores, mask, b.Lens,
		decode.Options{Tree: p.cfg.Tree, Proj: p.cfg.Proj})
	if err != nil {
		return err
	}
	if !p.cfg.Punct {
		mask = batch.MaskExcluding(b, p.vocab.PunctIDs())
	}
	goldHeads := make([][]int, b.Size())
	goldRels := make([][]int, b.Size())
	for i, n := range b.Lens {
		goldHeads[i] = b.Heads[i][1 : n+1]
		goldRels[i] = b.Rels[i][1 : n+1]
	}
	return m.Update(heads, rels, goldHeads, goldRels, mask)
}

func (p *Parser) score(ctx context.Context, b *batch.Batch) (*scorer.Scores, [][]bool, error) {
	scores, err := p.scorer.Score(ctx, b)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Cannot score batch")
	}
	mask := batch.Mask(b)
	if err := scores.Validate(mask); err != nil {
		return nil, nil, err
	}
	return scores, mask, nil
}

func (p *Parser) relLabels(ids []int) []string {
	res := make([]string, len(ids))
	for i, id := range ids {
		res[i] = p.vocab.Rel(id)
	}
	return res
}

func (p *Parser) attach(sentences conll.Sentences, res *Result) {
	for i, s := range sentences {
		s1 := make(conll.Sentence, len(s))
		copy(s1, s)
		for j := range s1 {
			s1[j].Head = res.Heads[i][j]
			s1[j].DepRel = res.Rels[i][j]
		}
		res.Sentences[i] = s1
	}
}

func newBar(opts Options, count int) *uiprogress.Bar {
	if !opts.Progress {
		return nil
	}
	uiprogress.Start()
	bar := uiprogress.AddBar(count)
	bar.AppendCompleted()
	return bar
}

func checkAnnotated(sentences conll.Sentences) error {
	for i, s := range sentences {
		for _, tok := range s {
			if tok.Head == conll.NoHead || tok.DepRel == "" {
				return errors.Errorf("Sentence %d is not annotated", i+1)
			}
		}
	}
	return nil
}
