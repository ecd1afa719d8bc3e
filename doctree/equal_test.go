package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func halfOf(t *testing.T, f float64) *Document {
	t.Helper()
	raw, ok := Float64ToHalf(f)
	if !ok {
		t.Fatalf("%v has no exact half-float representation", f)
	}
	return NewHalfFloat(raw)
}

func TestEqual(t *testing.T) {
	obj1 := NewObject(InsertionOrdered)
	_ = obj1.Set("a", NewInt64(1))
	_ = obj1.Set("b", NewInt64(2))

	obj2 := NewObject(Sorted)
	_ = obj2.Set("b", NewInt64(2))
	_ = obj2.Set("a", NewInt64(1))

	for _, test := range []struct {
		name string
		a, b *Document
		want bool
	}{
		{"same int64", NewInt64(5), NewInt64(5), true},
		{"int64 vs uint64 cross-kind", NewInt64(5), NewUInt64(5), true},
		{"different int64", NewInt64(5), NewInt64(6), false},
		{"mixed object policy, same pairs", obj1, obj2, true},
		{"strings equal", NewString("x"), NewString("x"), true},
		{"strings differ", NewString("x"), NewString("y"), false},
		{"null vs nil pointer", NewNull(), nil, true},
		{"bigint string identity", NewBigInt("123"), NewBigInt("123"), true},
		{"bigint vs bigdec differ by kind", NewBigInt("123"), NewBigDec("123"), false},
		{"double vs halffloat of the same value", NewDouble(1.5), halfOf(t, 1.5), true},
		{"double vs halffloat of different values", NewDouble(1.5), halfOf(t, 2.5), false},
		{"int64 vs double of the same value", NewInt64(2), NewDouble(2.0), true},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Equal(test.a, test.b))
		})
	}
}

func TestEqualArraysElementwise(t *testing.T) {
	a := NewArray()
	_ = a.Append(NewInt64(1))
	_ = a.Append(NewString("x"))

	b := NewArray()
	_ = b.Append(NewInt64(1))
	_ = b.Append(NewString("x"))

	assert.True(t, Equal(a, b))

	_ = b.Append(NewBool(true))
	assert.False(t, Equal(a, b))
}
