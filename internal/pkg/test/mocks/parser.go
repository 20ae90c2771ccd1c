package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bitbucket.org/airenas/depgo/internal/pkg/conll"
	"bitbucket.org/airenas/depgo/internal/pkg/parser"
)

//Parser is a mock
type Parser struct {
	mock.Mock
}

//Predict is a mocked Predict function
func (m *Parser) Predict(ctx context.Context, sentences conll.Sentences, opts parser.Options) (*parser.Result, error) {
	args := m.Mock.Called(sentences, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*parser.Result), args.Error(1)
}
