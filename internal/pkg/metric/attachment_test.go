package metric

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	testMask  = [][]bool{{false, true, true, true}}
	testHeads = [][]int{{2, 3, 0}}
	testRels  = [][]int{{0, 1, 2}}
)

func TestEmpty(t *testing.T) {
	m := &Attachment{}
	assert.Equal(t, 0.0, m.UAS())
	assert.Equal(t, 0.0, m.LAS())
	assert.Equal(t, 0, m.Total())
}

func TestAllCorrect(t *testing.T) {
	m := &Attachment{}
	err := m.Update(testHeads, testRels, testHeads, testRels, testMask)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, m.UAS())
	assert.Equal(t, 1.0, m.LAS())
	assert.Equal(t, 3, m.Total())
}

func TestPartlyCorrect(t *testing.T) {
	m := &Attachment{}
	err := m.Update([][]int{{2, 0, 0}}, [][]int{{0, 1, 1}}, testHeads, testRels, testMask)
	assert.Nil(t, err)
	assert.InDelta(t, 2.0/3.0, m.UAS(), 0.0001)
	assert.InDelta(t, 1.0/3.0, m.LAS(), 0.0001)
}

func TestMaskedOutIgnored(t *testing.T) {
	m := &Attachment{}
	mask := [][]bool{{false, true, false, true}}
	err := m.Update([][]int{{2, 1, 0}}, testRels, testHeads, testRels, mask)
	assert.Nil(t, err)
	assert.Equal(t, 2, m.Total())
	assert.Equal(t, 1.0, m.UAS())
}

func TestEmptyMaskIsNoOp(t *testing.T) {
	m := &Attachment{}
	err := m.Update([][]int{{}}, [][]int{{}}, [][]int{{}}, [][]int{{}}, [][]bool{{false, false}})
	assert.Nil(t, err)
	assert.Equal(t, 0, m.Total())
	assert.Equal(t, 0.0, m.UAS())
}

func TestUpdateFails(t *testing.T) {
	m := &Attachment{}
	err := m.Update([][]int{}, [][]int{}, testHeads, testRels, testMask)
	assert.NotNil(t, err)
	err = m.Update(testHeads, testRels, testHeads, testRels, [][]bool{{false, true, true, true, true}})
	assert.NotNil(t, err)
}

func TestFailedUpdateKeepsCounts(t *testing.T) {
	m := &Attachment{}
	assert.Nil(t, m.Update(testHeads, testRels, testHeads, testRels, testMask))
	// second sentence row fails, the first must not be counted
	badMask := [][]bool{testMask[0], {false, true, true, true, true}}
	err := m.Update([][]int{testHeads[0], testHeads[0]}, [][]int{testRels[0], testRels[0]},
		[][]int{testHeads[0], testHeads[0]}, [][]int{testRels[0], testRels[0]}, badMask)
	assert.NotNil(t, err)
	assert.Equal(t, 3, m.Total())
	assert.Equal(t, 1.0, m.UAS())
}

func TestReset(t *testing.T) {
	m := &Attachment{}
	assert.Nil(t, m.Update(testHeads, testRels, testHeads, testRels, testMask))
	m.Reset()
	assert.Equal(t, 0, m.Total())
	assert.Equal(t, 0.0, m.LAS())
}

func TestConcurrentUpdates(t *testing.T) {
	m := &Attachment{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Nil(t, m.Update(testHeads, testRels, testHeads, testRels, testMask))
		}()
	}
	wg.Wait()
	assert.Equal(t, 60, m.Total())
	assert.Equal(t, 1.0, m.UAS())
}

func TestString(t *testing.T) {
	m := &Attachment{}
	assert.Nil(t, m.Update(testHeads, testRels, testHeads, testRels, testMask))
	assert.Equal(t, "UAS: 1.0000, LAS: 1.0000", m.String())
}
