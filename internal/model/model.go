// Package model holds the scene store's domain types.
package model

import "sort"

// Annotations are the free-form key/value annotations attached by the
// perception pipeline (class, shape, color, size, ...).
type Annotations map[string]any

// Keys returns the annotation keys in stable order for rendering.
func (a Annotations) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ObjectHypothesis is one object detected in a single scene.
type ObjectHypothesis struct {
	ID          string      `json:"id"`
	Timestamp   int64       `json:"timestamp"`
	Index       int         `json:"index"`
	Annotations Annotations `json:"annotations"`
	Image       []byte      `json:"-"`
}

// PersistentObject is an object tracked across scenes.
type PersistentObject struct {
	ID          int         `json:"id"`
	Label       string      `json:"label"`
	Annotations Annotations `json:"annotations"`
	Image       []byte      `json:"-"`
}

// ObjectInstance is a single sighting of a persistent object.
type ObjectInstance struct {
	ObjectID     int         `json:"object_id"`
	Timestamp    int64       `json:"timestamp"`
	HypothesisID string      `json:"hypothesis_id"`
	Annotations  Annotations `json:"annotations"`
	Image        []byte      `json:"-"`
}

// Scene is one captured frame with the hypotheses detected in it.
type Scene struct {
	Timestamp int64              `json:"timestamp"`
	Image     []byte             `json:"-"`
	Objects   []ObjectHypothesis `json:"objects"`
}
