package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type MethodCall struct {
	Address common.Address
	Method  abi.Method
	Args    []any
}

// NewMethodCall creates a new method call
func NewMethodCall(address common.Address, method abi.Method, args ...any) *MethodCall {
	return &MethodCall{
		Address: address,
		Method:  method,
		Args:    args,
	}
}

// CallData returns the call data for the method call
func (c *MethodCall) CallData() ([]byte, error) {
	data, err := c.Method.Inputs.Pack(c.Args...)
	if err != nil {
		return nil, err
	}

	return append(c.Method.ID, data...), nil
}

// Unpack decodes the raw return data into the method output types.
func (c *MethodCall) Unpack(raw []byte) ([]any, error) {
	// Nothing returned and nothing expected.
	if len(raw) == 0 && len(c.Method.Outputs) == 0 {
		return []any{}, nil
	}

	return c.Method.Outputs.Unpack(raw)
}
