package rpcclient

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stake/internal/rpc"
	"github.com/Klingon-tech/klingnet-stake/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// ErrNoSigner is returned by mutating calls on a client without a signer.
var ErrNoSigner = errors.New("rpcclient: no signer configured")

// IsCode reports whether err is an RPC error with the given code.
func IsCode(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// StakeClient wraps Client with typed stake_* calls. Mutating calls are
// signed with the configured signer using the server's namespace and the
// next unused nonce.
type StakeClient struct {
	*Client
	signer    crypto.Signer
	namespace string // Cached from stake_getInfo.
}

// NewStakeClient creates a typed client. signer may be nil for read-only use.
func NewStakeClient(c *Client, signer crypto.Signer) *StakeClient {
	return &StakeClient{Client: c, signer: signer}
}

// Owner returns the signer's address.
func (c *StakeClient) Owner() (types.Address, error) {
	if c.signer == nil {
		return types.Address{}, ErrNoSigner
	}
	return crypto.AddressFromPubKey(c.signer.PublicKey()), nil
}

// CreateAccount opens the signer's account.
func (c *StakeClient) CreateAccount(ctx context.Context) (*rpc.AccountResult, error) {
	var res rpc.AccountResult
	if err := c.signedCall(ctx, rpc.MethodCreateAccount, 0, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stake deposits amount base units.
func (c *StakeClient) Stake(ctx context.Context, amount uint64) (*rpc.AccountResult, error) {
	var res rpc.AccountResult
	if err := c.signedCall(ctx, rpc.MethodDeposit, amount, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Unstake withdraws amount base units.
func (c *StakeClient) Unstake(ctx context.Context, amount uint64) (*rpc.AccountResult, error) {
	var res rpc.AccountResult
	if err := c.signedCall(ctx, rpc.MethodUnstake, amount, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ClaimPoints settles and claims all accrued points.
func (c *StakeClient) ClaimPoints(ctx context.Context) (*rpc.ClaimResult, error) {
	var res rpc.ClaimResult
	if err := c.signedCall(ctx, rpc.MethodClaimPoints, 0, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAccount fetches the account owned by addr.
func (c *StakeClient) GetAccount(ctx context.Context, addr types.Address) (*rpc.AccountResult, error) {
	var res rpc.AccountResult
	if err := c.CallContext(ctx, rpc.MethodGetAccount, rpc.AddressParam{Address: addr.String()}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetPoints returns the points addr would hold if settled now.
func (c *StakeClient) GetPoints(ctx context.Context, addr types.Address) (*rpc.PointsResult, error) {
	var res rpc.PointsResult
	if err := c.CallContext(ctx, rpc.MethodGetPoints, rpc.AddressParam{Address: addr.String()}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetNonce returns the last nonce the server accepted from addr.
func (c *StakeClient) GetNonce(ctx context.Context, addr types.Address) (uint64, error) {
	var res rpc.NonceResult
	if err := c.CallContext(ctx, rpc.MethodGetNonce, rpc.AddressParam{Address: addr.String()}, &res); err != nil {
		return 0, err
	}
	return res.LastNonce, nil
}

// GetInfo returns the server's ledger parameters.
func (c *StakeClient) GetInfo(ctx context.Context) (*rpc.InfoResult, error) {
	var res rpc.InfoResult
	if err := c.CallContext(ctx, rpc.MethodGetInfo, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *StakeClient) signedCall(ctx context.Context, method string, amount uint64, result interface{}) error {
	params, err := c.sign(ctx, method, amount)
	if err != nil {
		return err
	}
	return c.CallContext(ctx, method, params, result)
}

// sign builds signed params for method. Concurrent callers sharing one
// signer can race for the same nonce; the loser gets CodeUnauthorized.
func (c *StakeClient) sign(ctx context.Context, method string, amount uint64) (*rpc.SignedParam, error) {
	owner, err := c.Owner()
	if err != nil {
		return nil, err
	}
	if c.namespace == "" {
		info, err := c.GetInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch namespace: %w", err)
		}
		c.namespace = info.Namespace
	}
	last, err := c.GetNonce(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	nonce := last + 1

	sig, err := crypto.SignOperation(c.signer, c.namespace, method, amount, nonce)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", method, err)
	}
	return &rpc.SignedParam{
		PubKey:    hex.EncodeToString(c.signer.PublicKey()),
		Amount:    amount,
		Nonce:     nonce,
		Signature: hex.EncodeToString(sig),
	}, nil
}
