// stake-cli is a command-line client for a stakerd daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-stake/config"
	"github.com/Klingon-tech/klingnet-stake/internal/rpc"
	"github.com/Klingon-tech/klingnet-stake/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-stake/internal/stake"
	"github.com/Klingon-tech/klingnet-stake/internal/wallet"
	"github.com/Klingon-tech/klingnet-stake/pkg/types"
)

// globals holds flags that precede the subcommand.
type globals struct {
	rpcURL   string
	dataDir  string
	network  string
	identity string
}

// keystoreDir matches stakerd's layout: <datadir>/<network>/keystore.
func (g *globals) keystoreDir() string {
	return filepath.Join(g.dataDir, g.network, "keystore")
}

func (g *globals) client() *rpcclient.StakeClient {
	return rpcclient.NewStakeClient(rpcclient.New(g.rpcURL), nil)
}

func main() {
	g := &globals{
		dataDir:  config.DefaultDataDir(),
		network:  string(config.Mainnet),
		identity: "default",
	}

	args := os.Args[1:]
	for len(args) > 0 && strings.HasPrefix(args[0], "--") && args[0] != "--help" {
		name, value, ok := strings.Cut(args[0][2:], "=")
		if !ok {
			if len(args) < 2 {
				break
			}
			value = args[1]
			args = args[1:]
		}
		switch name {
		case "rpc":
			g.rpcURL = value
		case "datadir":
			g.dataDir = value
		case "network":
			g.network = value
		case "identity":
			g.identity = value
		default:
			fatal("unknown global flag --%s", name)
		}
		args = args[1:]
	}

	if g.network == string(config.Testnet) {
		types.SetAddressPrefix(types.TestnetPrefix)
	} else {
		types.SetAddressPrefix(types.MainnetPrefix)
	}
	if g.rpcURL == "" {
		port := config.Default(config.NetworkType(g.network)).RPC.Port
		g.rpcURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "identity":
		cmdIdentity(g, cmdArgs)
	case "create":
		cmdCreate(g)
	case "stake":
		cmdStake(g, cmdArgs)
	case "unstake":
		cmdUnstake(g, cmdArgs)
	case "claim":
		cmdClaim(g)
	case "points":
		cmdPoints(g, cmdArgs)
	case "account":
		cmdAccount(g, cmdArgs)
	case "info":
		cmdInfo(g)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: stake-cli [global flags] <command> [args]

Global flags:
  --rpc <url>          RPC endpoint (default: http://127.0.0.1:8555, testnet 8655)
  --datadir <path>     Data directory (default: ~/.klingnet-stake)
  --network <net>      mainnet (default) or testnet
  --identity <name>    Keystore identity used for signing (default: default)

Commands:
  identity create [--index <n>]        Create an identity from a new mnemonic
  identity import --mnemonic "..." [--index <n>]
                                       Import an identity from a mnemonic
  identity show                        Show the identity address
  identity list                        List stored identities
  identity delete                      Remove the identity (asks for its password)

  create                               Open a stake account
  stake <amount>                       Deposit stake (decimal coins)
  unstake <amount>                     Withdraw stake (decimal coins)
  claim                                Claim all accrued points
  points [address]                     Show points accrued so far
  account [address]                    Show a stake account
  info                                 Show ledger parameters
`)
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ── identity ────────────────────────────────────────────────────────────

func cmdIdentity(g *globals, args []string) {
	if len(args) == 0 {
		fatal("Usage: stake-cli identity <create|import|show|list|delete>")
	}
	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("identity create", flag.ExitOnError)
		index := fs.Uint("index", 0, "Identity index")
		fs.Parse(args[1:])

		mnemonic, err := wallet.GenerateMnemonic()
		if err != nil {
			fatal("generate mnemonic: %v", err)
		}
		fmt.Println("Mnemonic (write this down!):")
		fmt.Printf("  %s\n\n", mnemonic)
		storeIdentity(ks, g.identity, mnemonic, uint32(*index))

	case "import":
		fs := flag.NewFlagSet("identity import", flag.ExitOnError)
		mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic")
		index := fs.Uint("index", 0, "Identity index")
		fs.Parse(args[1:])
		if *mnemonic == "" {
			fatal("Usage: stake-cli identity import --mnemonic \"...\"")
		}
		if !wallet.ValidateMnemonic(*mnemonic) {
			fatal("invalid mnemonic")
		}
		storeIdentity(ks, g.identity, *mnemonic, uint32(*index))

	case "show":
		id, err := ks.Info(g.identity)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("Identity: %s\n", id.Name)
		fmt.Printf("Address:  %s\n", id.Address)
		fmt.Printf("Path:     %s\n", wallet.FormatPath(wallet.IdentityPath(id.Index)))
		fmt.Printf("Created:  %s\n", id.CreatedAt.Format(time.RFC3339))

	case "list":
		names, err := ks.List()
		if err != nil {
			fatal("%v", err)
		}
		if len(names) == 0 {
			fmt.Println("No identities.")
			return
		}
		for _, name := range names {
			id, err := ks.Info(name)
			if err != nil {
				fmt.Printf("  %-16s (unreadable: %v)\n", name, err)
				continue
			}
			fmt.Printf("  %-16s %s\n", name, id.Address)
		}

	case "delete":
		password, err := readPassword("Password for " + g.identity + ": ")
		if err != nil {
			fatal("read password: %v", err)
		}
		key, err := ks.Open(g.identity, password)
		if err != nil {
			fatal("open identity: %v", err)
		}
		key.Zero()
		if err := ks.Delete(g.identity); err != nil {
			fatal("delete identity: %v", err)
		}
		fmt.Printf("Identity deleted: %s\n", g.identity)

	default:
		fatal("unknown identity command %q", args[0])
	}
}

func storeIdentity(ks *wallet.Keystore, name, mnemonic string, index uint32) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	id, err := ks.Create(name, mnemonic, "", index, password, wallet.DefaultParams())
	if err != nil {
		fatal("store identity: %v", err)
	}
	fmt.Printf("Identity stored: %s\n", id.Name)
	fmt.Printf("Address: %s\n", id.Address)
}

// signingClient opens the selected identity and returns a client that
// signs with it.
func signingClient(g *globals) *rpcclient.StakeClient {
	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", g.identity))
	if err != nil {
		fatal("read password: %v", err)
	}
	key, err := ks.Open(g.identity, password)
	if err != nil {
		fatal("open identity: %v", err)
	}
	return rpcclient.NewStakeClient(rpcclient.New(g.rpcURL), key)
}

// ── stake operations ────────────────────────────────────────────────────

func cmdCreate(g *globals) {
	c := signingClient(g)
	ctx, cancel := opContext()
	defer cancel()

	acct, err := c.CreateAccount(ctx)
	if err != nil {
		fatal("create account: %v", err)
	}
	fmt.Println("Account created.")
	printAccount(acct)
}

func cmdStake(g *globals, args []string) {
	amount := amountArg("stake", args)
	c := signingClient(g)
	ctx, cancel := opContext()
	defer cancel()

	acct, err := c.Stake(ctx, amount)
	if err != nil {
		fatal("stake: %v", err)
	}
	printAccount(acct)
}

func cmdUnstake(g *globals, args []string) {
	amount := amountArg("unstake", args)
	c := signingClient(g)
	ctx, cancel := opContext()
	defer cancel()

	acct, err := c.Unstake(ctx, amount)
	if err != nil {
		fatal("unstake: %v", err)
	}
	printAccount(acct)
}

func cmdClaim(g *globals) {
	c := signingClient(g)
	ctx, cancel := opContext()
	defer cancel()

	res, err := c.ClaimPoints(ctx)
	if err != nil {
		fatal("claim: %v", err)
	}
	fmt.Printf("Claimed: %d points\n", res.Claimed)
	printAccount(res.Account)
}

// ── reads ───────────────────────────────────────────────────────────────

func cmdPoints(g *globals, args []string) {
	addr := addressArg(g, args)
	ctx, cancel := opContext()
	defer cancel()

	res, err := g.client().GetPoints(ctx, addr)
	if err != nil {
		fatal("points: %v", err)
	}
	fmt.Printf("Owner:   %s\n", res.Owner)
	fmt.Printf("Points:  %d\n", res.Points)
	fmt.Printf("At:      %s\n", time.Unix(res.At, 0).UTC().Format(time.RFC3339))
}

func cmdAccount(g *globals, args []string) {
	addr := addressArg(g, args)
	ctx, cancel := opContext()
	defer cancel()

	acct, err := g.client().GetAccount(ctx, addr)
	if err != nil {
		if rpcclient.IsCode(err, rpc.CodeNotFound) {
			fatal("no stake account for %s", addr)
		}
		fatal("account: %v", err)
	}
	printAccount(acct)
}

func cmdInfo(g *globals) {
	ctx, cancel := opContext()
	defer cancel()

	info, err := g.client().GetInfo(ctx)
	if err != nil {
		fatal("info: %v", err)
	}
	fmt.Printf("Namespace: %s\n", info.Namespace)
	fmt.Printf("Rate:      %s points per base unit per second\n", info.Rate)
	fmt.Printf("Decimals:  %d\n", info.Decimals)
	fmt.Printf("Accounts:  %d\n", info.Accounts)
	fmt.Printf("Staked:    %s\n", stake.FormatAmount(info.TotalStaked))
	fmt.Printf("Time:      %s\n", time.Unix(info.Now, 0).UTC().Format(time.RFC3339))
}

// ── helpers ─────────────────────────────────────────────────────────────

func printAccount(a *rpc.AccountResult) {
	fmt.Printf("Owner:          %s\n", a.Owner)
	fmt.Printf("Account:        %s (bump %d)\n", a.AccountAddress, a.Bump)
	fmt.Printf("Staked:         %s\n", a.Staked)
	fmt.Printf("Points:         %d\n", a.TotalPoints)
	fmt.Printf("Accrual start:  %s\n", time.Unix(a.AccrualStart, 0).UTC().Format(time.RFC3339))
}

func amountArg(cmd string, args []string) uint64 {
	if len(args) != 1 {
		fatal("Usage: stake-cli %s <amount>", cmd)
	}
	amount, err := stake.ParseAmount(args[0])
	if err != nil {
		fatal("invalid amount %q: %v", args[0], err)
	}
	return amount
}

// addressArg returns the address argument, or the selected identity's
// address when none is given.
func addressArg(g *globals, args []string) types.Address {
	if len(args) > 0 {
		addr, err := types.ParseAddress(args[0])
		if err != nil {
			fatal("invalid address: %v", err)
		}
		return addr
	}
	ks, err := wallet.NewKeystore(g.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	id, err := ks.Info(g.identity)
	if err != nil {
		fatal("no address given and %v", err)
	}
	return id.Address
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
