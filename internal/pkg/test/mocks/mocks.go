package mocks

import (
	"testing"

	"github.com/petergtz/pegomock"
)

//go:generate pegomock generate --package=mocks --output=pegoScorer.go -m bitbucket.org/airenas/depgo/internal/pkg/scorer Scorer

//go:generate pegomock generate --package=mocks --output=pegoParser.go -m bitbucket.org/airenas/depgo/internal/app/parseserver Parser

//AttachMockToTest registers pegomock verification to be passed to the test engine
func AttachMockToTest(t *testing.T) {
	pegomock.RegisterMockFailHandler(handleByTest(t))
}

func handleByTest(t *testing.T) pegomock.FailHandler {
	return func(message string, callerSkip ...int) {
		if message != "" {
			t.Error(message)
		} else {
			t.Error("Test failed")
		}
	}
}
