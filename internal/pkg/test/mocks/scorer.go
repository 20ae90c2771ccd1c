package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bitbucket.org/airenas/depgo/internal/pkg/batch"
	"bitbucket.org/airenas/depgo/internal/pkg/scorer"
)

//Scorer is a mock
type Scorer struct {
	mock.Mock
}

//Score is a mocked Score function
func (m *Scorer) Score(ctx context.Context, b *batch.Batch) (*scorer.Scores, error) {
	args := m.Mock.Called(b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scorer.Scores), args.Error(1)
}
