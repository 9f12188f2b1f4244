package static

import (
	"context"
	"errors"
	"fmt"
	"github.com/HLWGroup/callstate/contract"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"math/big"
)

// Errors
var (
	ErrOptsRequired = errors.New("call opts are required")
)

// Opts call opts for static calls
type Opts struct {
	From        common.Address
	To          common.Address
	Gas         uint64
	GasPrice    *big.Int
	GasFeeCap   *big.Int
	GasTipCap   *big.Int
	Value       *big.Int
	AccessLists types.AccessList
}

// CallStaticWithName calls a function statically (not be mined into the blockchain) and returns its results.
// using 0 gas will allow infinite gas to be used
func CallStaticWithName(ctx context.Context, caller bind.ContractCaller, abi *abi.ABI, opts *Opts, methodName string, args ...any) (results []any, err error) {
	method, ok := abi.Methods[methodName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contract.ErrMethodNotFound, methodName)
	}

	return callStatic(ctx, caller, opts, method, args...)
}

// CallStaticWithMethod calls a function statically (not be mined into the blockchain) and returns its results.
// using 0 gas will allow infinite gas to be used
func CallStaticWithMethod(ctx context.Context, caller bind.ContractCaller, opts *Opts, method abi.Method, args ...any) (results []any, err error) {
	return callStatic(ctx, caller, opts, method, args...)
}

func callStatic(ctx context.Context, caller bind.ContractCaller, opts *Opts, method abi.Method, args ...any) (results []any, err error) {
	if opts == nil {
		return nil, ErrOptsRequired
	}

	call := contract.NewMethodCall(opts.To, method, args...)
	data, err := call.CallData()
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{
		From:       opts.From,
		To:         &opts.To,
		Data:       data,
		Gas:        opts.Gas,
		GasPrice:   opts.GasPrice,
		GasFeeCap:  opts.GasFeeCap,
		GasTipCap:  opts.GasTipCap,
		Value:      opts.Value,
		AccessList: opts.AccessLists,
	}

	result, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	return call.Unpack(result)
}

// Contract performs every call as a static call with fixed opts.
// It satisfies callstate.Contract and is useful when the view depends on the sender or attached value.
type Contract struct {
	abi    *abi.ABI
	caller bind.ContractCaller
	opts   Opts
}

// NewContract creates a static call contract handle. The opts are copied and their To is set to address.
func NewContract(address common.Address, parsed *abi.ABI, caller bind.ContractCaller, opts *Opts) *Contract {
	c := &Contract{abi: parsed, caller: caller}
	if opts != nil {
		c.opts = *opts
	}
	c.opts.To = address
	return c
}

// Address returns the call target.
func (c *Contract) Address() common.Address {
	return c.opts.To
}

// CallDigest returns the digest of the encoded call.
func (c *Contract) CallDigest(methodName string, args ...any) (common.Hash, error) {
	method, ok := c.abi.Methods[methodName]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %s", contract.ErrMethodNotFound, methodName)
	}

	data, err := contract.NewCallData(contract.NewMethodCall(c.opts.To, method, args...))
	if err != nil {
		return common.Hash{}, err
	}
	return data.Hash(), nil
}

// Call statically invokes the named method.
func (c *Contract) Call(ctx context.Context, methodName string, args ...any) ([]any, error) {
	return CallStaticWithName(ctx, c.caller, c.abi, &c.opts, methodName, args...)
}
