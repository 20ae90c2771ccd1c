package tf

import (
	"context"
	"strings"

	tf_framework "github.com/airenas/go-tf-serving-protogen/tensorflow/core/framework"
	tf_serving "github.com/airenas/go-tf-serving-protogen/tensorflow_serving/apis"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"bitbucket.org/airenas/depgo/internal/pkg/batch"
	"bitbucket.org/airenas/depgo/internal/pkg/scorer"
)

const (
	wordInput     = "word_ids"
	featInput     = "feat_ids"
	arcOutput     = "arc_scores"
	relOutput     = "rel_scores"
	invokeRetries = 3
)

// Wrapper scores batches by calling a TF serving model over grpc
type Wrapper struct {
	url     string
	name    string
	version int
}

// NewWrapper creates Wrapper
func NewWrapper(url string, name string, version int) (*Wrapper, error) {
	res := Wrapper{}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("No tf.url provided")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("No tf.name provided")
	}
	res.url = url
	res.name = name
	res.version = version
	return &res, nil
}

// Healthy returns nil or error if TF model is not accessible
func (w *Wrapper) Healthy() error {
	conn, err := grpc.Dial(w.url, grpc.WithInsecure())
	if err != nil {
		return err
	}
	defer conn.Close()

	r := &tf_serving.GetModelStatusRequest{
		ModelSpec: &tf_serving.ModelSpec{
			Name: w.name,
		}}
	client := tf_serving.NewModelServiceClient(conn)
	st, err := client.GetModelStatus(context.Background(), r)
	if err != nil {
		return err
	}
	for _, s := range st.ModelVersionStatus {
		if s.State == tf_serving.ModelVersionStatus_AVAILABLE {
			return nil
		}
	}
	return errors.New("Model is not available")
}

// Score invokes the model for one batch and reshapes the returned
// arc and relation tensors
func (w *Wrapper) Score(ctx context.Context, b *batch.Batch) (*scorer.Scores, error) {
	var resp *tf_serving.PredictResponse
	op := func() error {
		var err error
		resp, err = w.invoke(ctx, b)
		return err
	}
	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), invokeRetries), ctx))
	if err != nil {
		return nil, err
	}
	return makeScores(resp, b)
}

func (w *Wrapper) invoke(ctx context.Context, b *batch.Batch) (*tf_serving.PredictResponse, error) {
	conn, err := grpc.Dial(w.url, grpc.WithInsecure())
	if err != nil {
		return nil, errors.Wrap(err, "Cannot connect to the grpc server")
	}
	defer conn.Close()

	r := &tf_serving.PredictRequest{
		ModelSpec: &tf_serving.ModelSpec{
			Name: w.name,
		},
		Inputs: make(map[string]*tf_framework.TensorProto),
	}
	addInput(r, wordInput, b.Words)
	addInput(r, featInput, b.Feats)

	client := tf_serving.NewPredictionServiceClient(conn)
	resp, err := client.Predict(ctx, r)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot invoke tf server")
	}
	return resp, nil
}

func makeScores(resp *tf_serving.PredictResponse, b *batch.Batch) (*scorer.Scores, error) {
	out := resp.GetOutputs()
	arc, f := out[arcOutput]
	if !f {
		return nil, errors.Errorf("No %s in tf response", arcOutput)
	}
	rel, f := out[relOutput]
	if !f {
		return nil, errors.Errorf("No %s in tf response", relOutput)
	}
	res := &scorer.Scores{}
	var err error
	res.Arc, err = reshape3(arc, b.Size(), b.MaxLen())
	if err != nil {
		return nil, errors.Wrap(err, "Wrong arc tensor")
	}
	res.Rel, err = reshape4(rel, b.Size(), b.MaxLen())
	if err != nil {
		return nil, errors.Wrap(err, "Wrong rel tensor")
	}
	return res, nil
}

func reshape3(tp *tf_framework.TensorProto, size, maxLen int) ([][][]float64, error) {
	if err := checkDims(tp, size, maxLen, 3); err != nil {
		return nil, err
	}
	vals := tp.GetFloatVal()
	if len(vals) != size*maxLen*maxLen {
		return nil, errors.Errorf("Expected %d values, got %d", size*maxLen*maxLen, len(vals))
	}
	res := make([][][]float64, size)
	p := 0
	for i := 0; i < size; i++ {
		res[i] = make([][]float64, maxLen)
		for d := 0; d < maxLen; d++ {
			row := make([]float64, maxLen)
			for h := 0; h < maxLen; h++ {
				row[h] = float64(vals[p])
				p++
			}
			res[i][d] = row
		}
	}
	return res, nil
}

func reshape4(tp *tf_framework.TensorProto, size, maxLen int) ([][][][]float64, error) {
	if err := checkDims(tp, size, maxLen, 4); err != nil {
		return nil, err
	}
	rels := int(tp.GetTensorShape().GetDim()[3].Size)
	vals := tp.GetFloatVal()
	if len(vals) != size*maxLen*maxLen*rels {
		return nil, errors.Errorf("Expected %d values, got %d", size*maxLen*maxLen*rels, len(vals))
	}
	res := make([][][][]float64, size)
	p := 0
	for i := 0; i < size; i++ {
		res[i] = make([][][]float64, maxLen)
		for d := 0; d < maxLen; d++ {
			res[i][d] = make([][]float64, maxLen)
			for h := 0; h < maxLen; h++ {
				row := make([]float64, rels)
				for r := 0; r < rels; r++ {
					row[r] = float64(vals[p])
					p++
				}
				res[i][d][h] = row
			}
		}
	}
	return res, nil
}

func checkDims(tp *tf_framework.TensorProto, size, maxLen, want int) error {
	d := tp.GetTensorShape().GetDim()
	if len(d) != want {
		return errors.Errorf("Expected result dimension %d, got %d", want, len(d))
	}
	if int(d[0].Size) != size || int(d[1].Size) != maxLen || int(d[2].Size) != maxLen {
		return errors.Errorf("Expected shape [%d %d %d ...], got %v", size, maxLen, maxLen, d)
	}
	return nil
}

func addInput(pr *tf_serving.PredictRequest, tensorName string, data [][]int) {
	size := len(data)
	maxLen := 0
	if size > 0 {
		maxLen = len(data[0])
	}
	vals := make([]int32, 0, size*maxLen)
	for _, row := range data {
		for _, v := range row {
			vals = append(vals, int32(v))
		}
	}
	tp := &tf_framework.TensorProto{
		Dtype: tf_framework.DataType_DT_INT32,
		TensorShape: &tf_framework.TensorShapeProto{
			Dim: []*tf_framework.TensorShapeProto_Dim{
				{Size: int64(size)},
				{Size: int64(maxLen)},
			},
		},
		IntVal: vals,
	}
	pr.Inputs[tensorName] = tp
}
