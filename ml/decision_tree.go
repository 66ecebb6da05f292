package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// DecisionTree is a fitted binary tree exported as a flat node array with
// the root at index 0. Leaves carry the training class counts.
type DecisionTree struct {
	Features  []string   `json:"feature_names"`
	Threshold float64    `json:"threshold,omitempty"`
	Nodes     []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var tree DecisionTree
	if err := json.Unmarshal(payload, &tree); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := tree.validate(); err != nil {
		return err
	}
	*dt = tree
	return nil
}

func (dt *DecisionTree) validate() error {
	if len(dt.Features) == 0 {
		return errors.New("model declares no feature names")
	}
	if len(dt.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	if dt.Threshold == 0 {
		dt.Threshold = defaultDecisionThreshold
	}
	if dt.Threshold <= 0 || dt.Threshold >= 1 {
		return fmt.Errorf("threshold %v outside (0, 1)", dt.Threshold)
	}

	for idx, node := range dt.Nodes {
		if node.IsLeaf {
			if len(node.Value) != 2 {
				return fmt.Errorf("leaf %d has %d class counts, want 2", idx, len(node.Value))
			}
			if !finiteCount(node.Value[0]) || !finiteCount(node.Value[1]) || node.Value[0]+node.Value[1] <= 0 {
				return fmt.Errorf("leaf %d has invalid class counts %v", idx, node.Value)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(dt.Features) {
			return fmt.Errorf("node %d splits on feature %d of %d", idx, node.FeatureIdx, len(dt.Features))
		}
		if !dt.validChild(idx, node.LeftChild) || !dt.validChild(idx, node.RightChild) {
			return fmt.Errorf("node %d has invalid children %d/%d", idx, node.LeftChild, node.RightChild)
		}
	}
	return nil
}

func finiteCount(c float64) bool {
	return c >= 0 && !math.IsNaN(c) && !math.IsInf(c, 0)
}

// Children must point forward; that rules out cycles without a graph walk.
func (dt *DecisionTree) validChild(parent, child int) bool {
	return child > parent && child < len(dt.Nodes)
}

func (dt *DecisionTree) FeatureNames() []string {
	return append([]string(nil), dt.Features...)
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	p, err := dt.positive(features)
	if err != nil {
		return 0, err
	}
	if p >= dt.Threshold {
		return 1, nil
	}
	return 0, nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	p, err := dt.positive(features)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p, p}, nil
}

func (dt *DecisionTree) positive(features []float64) (float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return 0, err
	}
	return leaf.Value[1] / (leaf.Value[0] + leaf.Value[1]), nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.Nodes) == 0 {
		return TreeNode{}, errors.New("model not loaded")
	}
	if len(features) != len(dt.Features) {
		return TreeNode{}, fmt.Errorf("expected %d features, got %d", len(dt.Features), len(features))
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(dt.Nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
}
