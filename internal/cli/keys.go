package cli

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/core/tx/all"
	"github.com/LeJamon/goListingd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goListingd/internal/types"
)

var (
	keygenPassphrase string
	signKey          string
	signIn           string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a wallet key pair",
	Long: `Generate an ed25519 key pair. The address is the base58 public key and
the private key is the hex seed accepted by "listingd sign".

With --passphrase the key pair is derived from the passphrase and is
reproducible.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := []byte(keygenPassphrase)
		if len(seed) == 0 {
			seed = make([]byte, 32)
			if _, err := io.ReadFull(rand.Reader, seed); err != nil {
				return err
			}
		}
		priv, addr, err := ed25519.NewED25519Provider().GenerateKeypair(seed)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{
			"address":     addr.String(),
			"private_key": ed25519.EncodePrivateKey(priv),
		})
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an envelope",
	Long: `Read an envelope as JSON ({"type","nonce","instruction","signatures"}) from
--in or stdin, add the signature of --key and print the signed envelope.
Signatures already present are kept, so multi-signer envelopes are signed
by running the command once per signer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		program, err := cfg.Ledger.Program()
		if err != nil {
			return err
		}
		priv, err := ed25519.DecodePrivateKey(signKey)
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if signIn != "" && signIn != "-" {
			f, err := os.Open(signIn)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		var wire all.WireEnvelope
		if err := json.NewDecoder(r).Decode(&wire); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		env, err := all.FromWire(&wire)
		if err != nil {
			return err
		}
		if err := env.Sign(program, priv); err != nil {
			return err
		}
		signed, err := all.ToWire(env)
		if err != nil {
			return err
		}
		return printJSON(cmd, signed)
	},
}

var deriveCmd = &cobra.Command{
	Use:   "derive <seller> <listing_id> [sell_asset]",
	Short: "Derive a listing address",
	Long: `Print the listing address and bump derived from the seller and listing id
under the configured program id. With sell_asset the custody balance
address is printed too.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		program, err := cfg.Ledger.Program()
		if err != nil {
			return err
		}
		seller, err := types.ParseAddress(args[0])
		if err != nil {
			return fmt.Errorf("seller: %w", err)
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("listing_id: %w", err)
		}

		k, bump, err := keylet.Listing(program, seller, id)
		if err != nil {
			return err
		}
		out := map[string]interface{}{
			"program_id": program.String(),
			"listing":    k.Address().String(),
			"bump":       bump,
		}
		if len(args) == 3 {
			sell, err := types.ParseAddress(args[2])
			if err != nil {
				return fmt.Errorf("sell_asset: %w", err)
			}
			custody, err := service.Custody(k.Address(), sell)
			if err != nil {
				return err
			}
			out["custody"] = custody.String()
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd, signCmd, deriveCmd)

	keygenCmd.Flags().StringVar(&keygenPassphrase, "passphrase", "", "derive the key pair from a passphrase")

	signCmd.Flags().StringVarP(&signKey, "key", "k", "", "hex private key of the signer")
	signCmd.Flags().StringVarP(&signIn, "in", "i", "-", "envelope file (- for stdin)")
	_ = signCmd.MarkFlagRequired("key")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
