package risk

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// Forest is a decision-tree ensemble exported by the offline trainer.
// Loaded once and reused across inference calls without
// synchronisation: every field is read-only after LoadForest.
type Forest struct {
	schema  []string
	classes []model.RiskCategory
	trees   []forestTree
}

// forestJSON is the artifact wire shape. The trainer owns this format;
// we only check the pieces the online contract depends on.
type forestJSON struct {
	Schema  []string   `json:"schema"`
	Classes []string   `json:"classes"`
	Trees   []treeJSON `json:"trees"`
}

type treeJSON struct {
	Nodes []nodeJSON `json:"nodes"`
}

// nodeJSON is one flat-array tree node. Interior nodes have Feature >= 0
// and Left/Right indexes; leaves carry a per-class probability
// distribution in Votes.
type nodeJSON struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Votes     []float64 `json:"votes,omitempty"`
}

type forestTree struct {
	nodes []nodeJSON
}

// LoadForest reads a trained artifact from path.
func LoadForest(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()
	return ReadForest(f)
}

// ReadForest parses a trained artifact and validates its schema
// against the feature order the screener produces. A drifted schema is
// rejected here, at load, so Predict can limit itself to a length
// check on the hot path.
func ReadForest(r io.Reader) (*Forest, error) {
	var payload forestJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	want := model.FeatureNames()
	if len(payload.Schema) != len(want) {
		return nil, fmt.Errorf("%w: artifact has %d features, screener produces %d",
			ErrFeatureSchemaMismatch, len(payload.Schema), len(want))
	}
	for i, name := range payload.Schema {
		if name != want[i] {
			return nil, fmt.Errorf("%w: feature %d is %q, screener produces %q",
				ErrFeatureSchemaMismatch, i, name, want[i])
		}
	}

	if len(payload.Classes) == 0 {
		return nil, fmt.Errorf("model artifact has no classes")
	}
	known := make(map[model.RiskCategory]bool)
	for _, c := range model.RiskCategories() {
		known[c] = true
	}
	classes := make([]model.RiskCategory, 0, len(payload.Classes))
	for _, c := range payload.Classes {
		cat := model.RiskCategory(c)
		if !known[cat] {
			return nil, fmt.Errorf("model artifact class %q is not a known risk category", c)
		}
		classes = append(classes, cat)
	}

	if len(payload.Trees) == 0 {
		return nil, fmt.Errorf("model artifact has no trees")
	}
	trees := make([]forestTree, 0, len(payload.Trees))
	for ti, tree := range payload.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("model artifact tree %d is empty", ti)
		}
		for ni, node := range tree.Nodes {
			if node.Feature < 0 {
				if len(node.Votes) != len(classes) {
					return nil, fmt.Errorf("model artifact tree %d leaf %d has %d votes, want %d",
						ti, ni, len(node.Votes), len(classes))
				}
				continue
			}
			if node.Feature >= len(want) {
				return nil, fmt.Errorf("model artifact tree %d node %d splits on feature %d, schema has %d",
					ti, ni, node.Feature, len(want))
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) ||
				node.Right < 0 || node.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("model artifact tree %d node %d has out-of-range children", ti, ni)
			}
		}
		trees = append(trees, forestTree{nodes: tree.Nodes})
	}

	return &Forest{schema: payload.Schema, classes: classes, trees: trees}, nil
}

// Predict averages the per-class distributions of all trees and
// returns the majority class with its averaged probability mass.
func (f *Forest) Predict(features model.FeatureVector) (model.RiskCategory, float64, error) {
	values := features.Values()
	if len(values) != len(f.schema) {
		return "", 0, fmt.Errorf("%w: got %d features, model expects %d",
			ErrFeatureSchemaMismatch, len(values), len(f.schema))
	}

	sums := make([]float64, len(f.classes))
	for _, tree := range f.trees {
		votes := tree.walk(values)
		for i, v := range votes {
			sums[i] += v
		}
	}

	best := 0
	total := 0.0
	for i, s := range sums {
		total += s
		if s > sums[best] {
			best = i
		}
	}
	probability := 0.0
	if total > 0 {
		probability = sums[best] / total
	}
	return f.classes[best], probability, nil
}

// walk follows the split nodes down to a leaf. Bounds were validated
// at load; a malformed cycle is cut off at the node count.
func (t forestTree) walk(values []float64) []float64 {
	idx := 0
	for steps := 0; steps <= len(t.nodes); steps++ {
		node := t.nodes[idx]
		if node.Feature < 0 {
			return node.Votes
		}
		if values[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return make([]float64, len(t.nodes[0].Votes))
}
