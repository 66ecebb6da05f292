package ml

import (
	"fmt"
)

const (
	ModelTypeLogisticRegression = "logistic_regression"
	ModelTypeDecisionTree       = "decision_tree"
)

func LoadModel(modelType, path string) (Classifier, error) {
	const op = "ml.LoadModel"

	switch modelType {
	case ModelTypeLogisticRegression:
		model := &LogisticRegression{}
		if err := model.Load(path); err != nil {
			return nil, opErr(op, KindModelInvocation, "", err)
		}
		return model, nil
	case ModelTypeDecisionTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, opErr(op, KindModelInvocation, "", err)
		}
		return model, nil
	default:
		return nil, opErr(op, KindModelInvocation, "", fmt.Errorf("unsupported model type %q", modelType))
	}
}
