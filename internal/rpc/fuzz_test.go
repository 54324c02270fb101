package rpc

import (
	"encoding/json"
	"testing"
)

// FuzzSignedParamUnmarshal checks that arbitrary params never panic the
// request decoding path used by the signed endpoints.
func FuzzSignedParamUnmarshal(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"stake_deposit","params":{"pubkey":"02ab","amount":5,"nonce":1,"signature":"00"},"id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"stake_getPoints","params":{"address":"stk:00"},"id":"x"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"method":"","params":[]}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"stake_unstake","params":{"amount":-1},"id":999}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		var p SignedParam
		_ = parseParams(&req, &p)
		_, _ = addressParam(&req)
	})
}
