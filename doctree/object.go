package doctree

import "sort"

// ObjectPolicy selects how an Object's keys are maintained, per spec.md
// section 3.3. Mixing policies across subtrees of the same Document is
// permitted; equality treats both policies as unordered multimaps.
type ObjectPolicy int8

const (
	// Sorted maintains keys in lexicographic order of their byte content;
	// lookup is O(log n). Duplicate insertions overwrite in place.
	Sorted ObjectPolicy = iota
	// InsertionOrdered retains first-insertion order; duplicate
	// insertions overwrite the existing slot without changing its
	// position. Lookup is O(1) via an auxiliary index.
	InsertionOrdered
)

type objPair struct {
	key string
	val *Document
}

// object is the storage behind a Document of KindObject.
type object struct {
	policy ObjectPolicy
	pairs  []objPair
	index  map[string]int // InsertionOrdered only; nil for Sorted
}

func newObject(policy ObjectPolicy) *object {
	o := &object{policy: policy}
	if policy == InsertionOrdered {
		o.index = map[string]int{}
	}
	return o
}

func (o *object) len() int { return len(o.pairs) }

func (o *object) get(key string) (*Document, bool) {
	switch o.policy {
	case Sorted:
		i := o.search(key)
		if i < len(o.pairs) && o.pairs[i].key == key {
			return o.pairs[i].val, true
		}
		return nil, false
	default:
		if i, ok := o.index[key]; ok {
			return o.pairs[i].val, true
		}
		return nil, false
	}
}

func (o *object) search(key string) int {
	return sort.Search(len(o.pairs), func(i int) bool { return o.pairs[i].key >= key })
}

// set inserts key/val, overwriting an existing entry's value in place
// (preserving position for InsertionOrdered).
func (o *object) set(key string, val *Document) {
	switch o.policy {
	case Sorted:
		i := o.search(key)
		if i < len(o.pairs) && o.pairs[i].key == key {
			o.pairs[i].val = val
			return
		}
		o.pairs = append(o.pairs, objPair{})
		copy(o.pairs[i+1:], o.pairs[i:])
		o.pairs[i] = objPair{key: key, val: val}
	default:
		if i, ok := o.index[key]; ok {
			o.pairs[i].val = val
			return
		}
		o.index[key] = len(o.pairs)
		o.pairs = append(o.pairs, objPair{key: key, val: val})
	}
}

func (o *object) remove(key string) bool {
	switch o.policy {
	case Sorted:
		i := o.search(key)
		if i >= len(o.pairs) || o.pairs[i].key != key {
			return false
		}
		o.pairs = append(o.pairs[:i], o.pairs[i+1:]...)
		return true
	default:
		i, ok := o.index[key]
		if !ok {
			return false
		}
		delete(o.index, key)
		o.pairs = append(o.pairs[:i], o.pairs[i+1:]...)
		for k, v := range o.index {
			if v > i {
				o.index[k] = v - 1
			}
		}
		return true
	}
}

func (o *object) clone() *object {
	n := &object{policy: o.policy, pairs: make([]objPair, len(o.pairs))}
	if o.policy == InsertionOrdered {
		n.index = make(map[string]int, len(o.index))
		for k, v := range o.index {
			n.index[k] = v
		}
	}
	for i, p := range o.pairs {
		n.pairs[i] = objPair{key: p.key, val: p.val.DeepCopy()}
	}
	return n
}
