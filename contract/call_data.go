package contract

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type CallData struct {
	Target   common.Address
	CallData []byte
}

// NewCallData encodes the method call against its target.
func NewCallData(method *MethodCall) (*CallData, error) {
	data, err := method.CallData()
	if err != nil {
		return nil, err
	}

	return &CallData{
		Target:   method.Address,
		CallData: data,
	}, nil
}

// Hash returns the keccak256 digest over the target address and the call data.
// Two calls with the same digest invoke the same method with the same arguments.
func (d *CallData) Hash() common.Hash {
	return crypto.Keccak256Hash(d.Target.Bytes(), d.CallData)
}
