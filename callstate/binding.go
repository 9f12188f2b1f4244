package callstate

import (
	"context"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
)

// Contract is a handle for a deployed contract whose read-only methods can be
// invoked. Both contract.Contract and static.Contract satisfy it.
type Contract interface {
	Address() common.Address
	Call(ctx context.Context, method string, args ...any) ([]any, error)
}

// Digester is implemented by contracts able to encode a call canonically.
// The digest is used to detect binding changes; arguments of other contracts
// are identified by their content.
type Digester interface {
	CallDigest(method string, args ...any) (common.Hash, error)
}

// Binding selects the call to watch. A nil Contract, an empty Method or nil
// Args mark the binding as incomplete; an empty non-nil Args is a call
// without arguments.
type Binding struct {
	Contract Contract
	Method   string
	Args     []any
}

// Complete reports whether contract, method and args are all present.
func (b Binding) Complete() bool {
	return b.Contract != nil && b.Method != "" && b.Args != nil
}

// Ways a binding's arguments are identified, from most to least canonical.
const (
	identityArgs    = iota // deep copy of the arguments
	identityCall           // digest of the ABI encoded call
	identityContent        // digest of the type tagged RLP encoding of the arguments
)

// bindingKey is the identity of a binding for change detection. It never
// shares memory with the caller's arguments.
type bindingKey struct {
	hasContract bool
	address     common.Address
	method      string
	hasArgs     bool
	identity    int
	digest      common.Hash // set for identityCall and identityContent
	args        []any       // set for identityArgs
}

func keyOf(b Binding) bindingKey {
	k := bindingKey{method: b.Method, hasArgs: b.Args != nil}
	if b.Contract != nil {
		k.hasContract = true
		k.address = b.Contract.Address()
	}
	if !k.hasArgs {
		return k
	}
	if d, ok := b.Contract.(Digester); ok && b.Method != "" {
		if digest, err := d.CallDigest(b.Method, b.Args...); err == nil {
			k.identity, k.digest = identityCall, digest
			return k
		}
	}
	if digest, ok := contentDigest(b.Args); ok {
		k.identity, k.digest = identityContent, digest
		return k
	}
	k.identity, k.args = identityArgs, copyArgs(b.Args)
	return k
}

func (k bindingKey) equal(o bindingKey) bool {
	if k.hasContract != o.hasContract || k.address != o.address || k.method != o.method || k.hasArgs != o.hasArgs {
		return false
	}
	if k.identity != o.identity {
		return false
	}
	if k.identity == identityArgs {
		return reflect.DeepEqual(k.args, o.args)
	}
	return k.digest == o.digest
}
