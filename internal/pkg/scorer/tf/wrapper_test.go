package tf

import (
	"testing"

	tf_framework "github.com/airenas/go-tf-serving-protogen/tensorflow/core/framework"
	tf_serving "github.com/airenas/go-tf-serving-protogen/tensorflow_serving/apis"
	"github.com/stretchr/testify/assert"

	"bitbucket.org/airenas/depgo/internal/pkg/batch"
)

func TestNewWrapper(t *testing.T) {
	w, err := NewWrapper("url", "model", 1)
	assert.Nil(t, err)
	assert.NotNil(t, w)
}

func TestNewWrapper_Fails(t *testing.T) {
	_, err := NewWrapper("", "model", 1)
	assert.NotNil(t, err)
	_, err = NewWrapper("url", " ", 1)
	assert.NotNil(t, err)
}

func newTensor(dims []int64, vals []float32) *tf_framework.TensorProto {
	d := make([]*tf_framework.TensorShapeProto_Dim, len(dims))
	for i, v := range dims {
		d[i] = &tf_framework.TensorShapeProto_Dim{Size: v}
	}
	return &tf_framework.TensorProto{
		Dtype:       tf_framework.DataType_DT_FLOAT,
		TensorShape: &tf_framework.TensorShapeProto{Dim: d},
		FloatVal:    vals,
	}
}

func testBatch() *batch.Batch {
	return &batch.Batch{Order: []int{0}, Words: [][]int{{2, 1}}, Feats: [][]int{{2, 1}},
		Lens: []int{1}}
}

func testResponse(arcVals, relVals []float32) *tf_serving.PredictResponse {
	return &tf_serving.PredictResponse{Outputs: map[string]*tf_framework.TensorProto{
		arcOutput: newTensor([]int64{1, 2, 2}, arcVals),
		relOutput: newTensor([]int64{1, 2, 2, 2}, relVals),
	}}
}

func TestMakeScores(t *testing.T) {
	resp := testResponse(
		[]float32{0.1, 0.2, 0.3, 0.4},
		[]float32{1, 2, 3, 4, 5, 6, 7, 8})
	s, err := makeScores(resp, testBatch())
	assert.Nil(t, err)
	assert.Equal(t, 1, len(s.Arc))
	assert.InDelta(t, 0.3, s.Arc[0][1][0], 0.0001)
	assert.InDelta(t, 6.0, s.Rel[0][1][0][1], 0.0001)
}

func TestMakeScores_FailsOnMissingOutput(t *testing.T) {
	resp := &tf_serving.PredictResponse{Outputs: map[string]*tf_framework.TensorProto{
		arcOutput: newTensor([]int64{1, 2, 2}, []float32{0.1, 0.2, 0.3, 0.4}),
	}}
	_, err := makeScores(resp, testBatch())
	assert.NotNil(t, err)
}

func TestMakeScores_FailsOnWrongShape(t *testing.T) {
	resp := testResponse([]float32{0.1, 0.2}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	resp.Outputs[arcOutput].TensorShape.Dim = resp.Outputs[arcOutput].TensorShape.Dim[:2]
	_, err := makeScores(resp, testBatch())
	assert.NotNil(t, err)
}

func TestAddInput(t *testing.T) {
	r := &tf_serving.PredictRequest{Inputs: make(map[string]*tf_framework.TensorProto)}
	addInput(r, wordInput, [][]int{{2, 5, 6}, {2, 7, 0}})
	tp := r.Inputs[wordInput]
	assert.NotNil(t, tp)
	assert.Equal(t, int64(2), tp.TensorShape.Dim[0].Size)
	assert.Equal(t, int64(3), tp.TensorShape.Dim[1].Size)
	assert.Equal(t, []int32{2, 5, 6, 2, 7, 0}, tp.IntVal)
}
