package metric

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

//Attachment accumulates unlabeled and labeled attachment counts over
//an evaluation pass. Updates are serialized, the struct may be shared
//between batch workers. Not meant to be shared between evaluation passes,
//call Reset or use a fresh instance
type Attachment struct {
	lock        sync.Mutex
	total       int
	correctArcs int
	correctRels int
}

//Update compares predictions with gold at every masked position.
//Gold and predicted grids are per sentence slices over real tokens,
//mask rows are batch shaped with the root at position 0
func (m *Attachment) Update(predHeads, predRels, goldHeads, goldRels [][]int, mask [][]bool) error {
	if err := validate(predHeads, predRels, goldHeads, goldRels, mask); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	for i, row := range mask {
		for j, on := range row {
			if !on {
				continue
			}
			d := j - 1 // mask includes the root position
			m.total++
			if predHeads[i][d] == goldHeads[i][d] {
				m.correctArcs++
				if predRels[i][d] == goldRels[i][d] {
					m.correctRels++
				}
			}
		}
	}
	return nil
}

//validate runs all shape checks up front, a failed update must not
//leave partial counts behind
func validate(predHeads, predRels, goldHeads, goldRels [][]int, mask [][]bool) error {
	if len(predHeads) != len(mask) || len(goldHeads) != len(mask) {
		return errors.Errorf("Wrong sentence count %d vs mask %d", len(predHeads), len(mask))
	}
	for i, row := range mask {
		if len(predHeads[i]) != len(predRels[i]) || len(goldHeads[i]) != len(goldRels[i]) {
			return errors.Errorf("Head and relation length mismatch at sentence %d", i)
		}
		for j, on := range row {
			if !on {
				continue
			}
			if d := j - 1; d >= len(predHeads[i]) || d >= len(goldHeads[i]) {
				return errors.Errorf("Mask position %d outside sentence %d", j, i)
			}
		}
	}
	return nil
}

//UAS returns the unlabeled attachment accuracy, 0 for an empty metric
func (m *Attachment) UAS() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.total == 0 {
		return 0
	}
	return float64(m.correctArcs) / float64(m.total)
}

//LAS returns the labeled attachment accuracy, 0 for an empty metric
func (m *Attachment) LAS() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.total == 0 {
		return 0
	}
	return float64(m.correctRels) / float64(m.total)
}

//Total returns the scored token count
func (m *Attachment) Total() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.total
}

//Reset drops all accumulated counts
func (m *Attachment) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.total, m.correctArcs, m.correctRels = 0, 0, 0
}

func (m *Attachment) String() string {
	return fmt.Sprintf("UAS: %.4f, LAS: %.4f", m.UAS(), m.LAS())
}
