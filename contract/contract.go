package contract

import (
	"context"
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Errors
var (
	ErrMethodNotFound = errors.New("method not found")
)

// Contract is a read-only handle for a deployed contract.
// It satisfies callstate.Contract.
type Contract struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// New creates a new contract handle for the given address and JSON ABI definition
func New(address string, abiJSON string, caller bind.ContractCaller) (*Contract, error) {
	parsed, err := (&bind.MetaData{ABI: abiJSON}).GetAbi()
	if err != nil {
		return nil, err
	}

	return NewWithABI(common.HexToAddress(address), *parsed, caller), nil
}

// NewWithABI creates a new contract handle from an already parsed ABI.
// Only the caller side of the binding is wired, transactions and log filtering are not supported.
func NewWithABI(address common.Address, parsed abi.ABI, caller bind.ContractCaller) *Contract {
	return &Contract{
		address,
		parsed,
		bind.NewBoundContract(address, parsed, caller, nil, nil),
	}
}

// Address returns the address of the contract.
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI returns the parsed ABI of the contract.
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// MethodCall builds a method call for the named method.
func (c *Contract) MethodCall(name string, args ...any) (*MethodCall, error) {
	method, ok := c.abi.Methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}

	return NewMethodCall(c.address, method, args...), nil
}

// CallDigest returns the digest of the encoded call, used to tell bindings apart.
func (c *Contract) CallDigest(name string, args ...any) (common.Hash, error) {
	call, err := c.MethodCall(name, args...)
	if err != nil {
		return common.Hash{}, err
	}

	data, err := NewCallData(call)
	if err != nil {
		return common.Hash{}, err
	}

	return data.Hash(), nil
}

// Call invokes a constant method against the latest state and returns its decoded results.
func (c *Contract) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	if _, ok := c.abi.Methods[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, name, args...)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []interface{}{}
	}
	return out, nil
}
