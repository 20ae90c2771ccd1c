package parseserver

//Input is a parse request
type Input struct {
	Sentences [][]string `json:"sentences"`
	Prob      bool       `json:"prob,omitempty"`
}

//SentenceResult is one parsed sentence of the response.
//Heads are 1-based token indices, 0 marks the sentence root
type SentenceResult struct {
	Heads []int       `json:"heads"`
	Rels  []string    `json:"rels"`
	Probs [][]float64 `json:"probs,omitempty"`
}

//Output is a parse response
type Output struct {
	Sentences []SentenceResult `json:"sentences"`
}
