package position

import "fmt"

// Prediction is the classifier's verdict for one square.
type Prediction struct {
	Class         Class               `json:"class"`
	Confidence    float64             `json:"confidence"`
	Probabilities [NumClasses]float64 `json:"probabilities"`
}

// FromProbabilities builds a prediction from a probability vector, picking
// the most probable class (the lowest index on ties).
func FromProbabilities(probs [NumClasses]float64) Prediction {
	best := Empty
	for c := Class(1); c < NumClasses; c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return Prediction{Class: best, Confidence: probs[best], Probabilities: probs}
}

// Certain is a prediction that puts all probability on one class.
func Certain(c Class) Prediction {
	var probs [NumClasses]float64
	probs[c] = 1
	return Prediction{Class: c, Confidence: 1, Probabilities: probs}
}

// Validate checks the class index and that probabilities are non-negative.
func (p Prediction) Validate() error {
	if !p.Class.Valid() {
		return fmt.Errorf("class %d out of range", int(p.Class))
	}
	for i, v := range p.Probabilities {
		if v < 0 {
			return fmt.Errorf("negative probability %.3f for %s", v, Class(i))
		}
	}
	return nil
}

// DetectFlipped decides from 64 predictions in image order whether the board
// is shown from black's side. It is flipped when the top row holds more white
// than black pieces and the bottom row more black than white. Any other
// number of predictions reports false.
func DetectFlipped(preds []Prediction) bool {
	if len(preds) != 64 {
		return false
	}

	var topWhite, topBlack, bottomWhite, bottomBlack int
	for i := 0; i < 8; i++ {
		top := preds[i].Class
		bottom := preds[56+i].Class
		switch {
		case top.IsWhite():
			topWhite++
		case top.IsBlack():
			topBlack++
		}
		switch {
		case bottom.IsWhite():
			bottomWhite++
		case bottom.IsBlack():
			bottomBlack++
		}
	}
	return topWhite > topBlack && bottomBlack > bottomWhite
}
