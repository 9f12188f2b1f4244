package static

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/HLWGroup/callstate/contract"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testABI = `[
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"quote","stateMutability":"payable","inputs":[],"outputs":[{"name":"","type":"uint256"},{"name":"","type":"bool"}]}
]`

var (
	target  = common.HexToAddress("0xae11C5B5f29A6a25e955F0CB8ddCc416f522AF5C")
	owner   = common.HexToAddress("0xF33d2E47001ddbD7b71301363f68F57e318Bd4c8")
	spender = common.HexToAddress("0x2F953EA963E0243528186b3C92ea86355af532eb")
)

type recordingCaller struct {
	abi  abi.ABI
	msgs []ethereum.CallMsg
}

func (r *recordingCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (r *recordingCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	r.msgs = append(r.msgs, call)
	method, err := r.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "allowance":
		return method.Outputs.Pack(big.NewInt(7))
	default:
		return method.Outputs.Pack(new(big.Int).Set(call.Value), true)
	}
}

func parseABI(t *testing.T) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(testABI))
	require.NoError(t, err)
	return parsed
}

func TestCallStaticWithName(t *testing.T) {
	parsed := parseABI(t)
	caller := &recordingCaller{abi: parsed}

	opts := &Opts{From: owner, To: target, Gas: 100_000}
	results, err := CallStaticWithName(context.Background(), caller, &parsed, opts, "allowance", owner, spender)
	require.NoError(t, err)
	require.Equal(t, []any{big.NewInt(7)}, results)

	require.Len(t, caller.msgs, 1)
	msg := caller.msgs[0]
	require.Equal(t, owner, msg.From)
	require.Equal(t, target, *msg.To)
	require.Equal(t, uint64(100_000), msg.Gas)
	require.Equal(t, parsed.Methods["allowance"].ID, msg.Data[:4])
}

func TestCallStaticUnknownMethod(t *testing.T) {
	parsed := parseABI(t)
	caller := &recordingCaller{abi: parsed}

	_, err := CallStaticWithName(context.Background(), caller, &parsed, &Opts{To: target}, "balanceOf", owner)
	require.ErrorIs(t, err, contract.ErrMethodNotFound)
	require.Empty(t, caller.msgs)
}

func TestCallStaticRequiresOpts(t *testing.T) {
	parsed := parseABI(t)
	caller := &recordingCaller{abi: parsed}

	_, err := CallStaticWithMethod(context.Background(), caller, nil, parsed.Methods["quote"])
	require.ErrorIs(t, err, ErrOptsRequired)
}

func TestContractCallsWithValue(t *testing.T) {
	parsed := parseABI(t)
	caller := &recordingCaller{abi: parsed}

	c := NewContract(target, &parsed, caller, &Opts{From: owner, Value: big.NewInt(1000)})
	require.Equal(t, target, c.Address())

	results, err := c.Call(context.Background(), "quote")
	require.NoError(t, err)
	require.Equal(t, []any{big.NewInt(1000), true}, results)
	require.Equal(t, target, *caller.msgs[0].To)
}

func TestContractCallDigest(t *testing.T) {
	parsed := parseABI(t)
	c := NewContract(target, &parsed, &recordingCaller{abi: parsed}, nil)

	a, err := c.CallDigest("allowance", owner, spender)
	require.NoError(t, err)
	b, err := c.CallDigest("allowance", spender, owner)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = c.CallDigest("missing")
	require.ErrorIs(t, err, contract.ErrMethodNotFound)
}
