package callstate

import (
	"io"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// contentDigest hashes the arguments by value. Every argument is prefixed with
// its dynamic type so values of different types with equal encodings differ.
// It reports false if any argument cannot be RLP encoded.
func contentDigest(args []any) (common.Hash, bool) {
	h := crypto.NewKeccakState()
	for _, arg := range args {
		if arg == nil {
			h.Write([]byte{0})
			continue
		}
		enc, err := rlp.EncodeToBytes(arg)
		if err != nil {
			return common.Hash{}, false
		}
		io.WriteString(h, reflect.TypeOf(arg).String())
		h.Write([]byte{0})
		h.Write(enc)
	}
	var digest common.Hash
	h.Read(digest[:])
	return digest, true
}

// copyArgs returns a deep copy of args. Unexported struct fields are copied
// shallowly and cyclic values are not supported.
func copyArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		if arg != nil {
			out[i] = deepCopy(reflect.ValueOf(arg)).Interface()
		}
	}
	return out
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		if v.CanInterface() {
			if b, ok := v.Interface().(*big.Int); ok {
				return reflect.ValueOf(new(big.Int).Set(b))
			}
		}
		c := reflect.New(v.Type().Elem())
		c.Elem().Set(deepCopy(v.Elem()))
		return c

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(deepCopy(v.Elem()))
		return c

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(deepCopy(v.Index(i)))
		}
		return c

	case reflect.Array:
		c := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(deepCopy(v.Index(i)))
		}
		return c

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(deepCopy(iter.Key()), deepCopy(iter.Value()))
		}
		return c

	case reflect.Struct:
		c := reflect.New(v.Type()).Elem()
		c.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := c.Field(i); f.CanSet() {
				f.Set(deepCopy(v.Field(i)))
			}
		}
		return c

	default:
		return v
	}
}
