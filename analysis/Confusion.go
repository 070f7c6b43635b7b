package analysis

import (
	"fmt"
)

// Confusion is a confusion matrix between ground-truth labels and
// predictions of whether states are unsafe. A value is positive
// (unsafe) if it is greater than 0.
type Confusion struct {
	TP, TN, FP, FN int
}

// ConfusionMatrix compares predicted values against ground-truth
// values
func ConfusionMatrix(labels, predictions []float64) (Confusion, error) {
	if len(labels) != len(predictions) {
		return Confusion{}, fmt.Errorf("confusionMatrix: labels and "+
			"predictions must have the same length \n\thave(%v, %v)",
			len(labels), len(predictions))
	}

	var c Confusion
	for i := range labels {
		label := labels[i] > 0
		pred := predictions[i] > 0

		switch {
		case label && pred:
			c.TP++
		case !label && !pred:
			c.TN++
		case !label && pred:
			c.FP++
		default:
			c.FN++
		}
	}
	return c, nil
}

// Total returns the number of compared values
func (c Confusion) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// Accuracy returns the fraction of correct predictions
func (c Confusion) Accuracy() float64 {
	return ratio(c.TP+c.TN, c.Total())
}

// TPRate returns the true positive rate
func (c Confusion) TPRate() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

// TNRate returns the true negative rate
func (c Confusion) TNRate() float64 {
	return ratio(c.TN, c.TN+c.FP)
}

// FPRate returns the false positive rate
func (c Confusion) FPRate() float64 {
	return ratio(c.FP, c.FP+c.TN)
}

// FNRate returns the false negative rate
func (c Confusion) FNRate() float64 {
	return ratio(c.FN, c.FN+c.TP)
}

func (c Confusion) String() string {
	return fmt.Sprintf("Confusion | TP: %d  |  TN: %d  |  FP: %d  |  "+
		"FN: %d  |  Accuracy: %.3f", c.TP, c.TN, c.FP, c.FN, c.Accuracy())
}

// ratio returns num / den, or 0 if den is 0
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
