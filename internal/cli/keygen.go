package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// KeygenOptions holds flags for the keygen command.
type KeygenOptions struct {
	*RootOptions
	Phrase string
	Force  bool
}

// KeyView describes a stored identity.
type KeyView struct {
	Name    string         `json:"name"`
	Path    string         `json:"path"`
	Address ledger.Address `json:"address"`
}

// Text implements Texter.
func (v KeyView) Text() string {
	return fmt.Sprintf("%s %s (%s)", v.Name, v.Address, v.Path)
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeygenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keygen <name>",
		Short: "Create an identity keypair",
		Long: `Create an ed25519 identity and store it in the keys directory as
<name>.json. With --phrase the key is derived from the phrase, so the same
phrase always yields the same identity.

Examples:
  mscp keygen alice
  mscp keygen bob --phrase "correct horse battery staple"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Phrase, "phrase", "", "derive the key from a phrase")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing key")

	return cmd
}

func runKeygen(cmd *cobra.Command, opts *KeygenOptions, name string) error {
	if err := opts.load(cmd.ErrOrStderr()); err != nil {
		return err
	}
	path := opts.keyPath(name)
	if _, err := os.Stat(path); err == nil && !opts.Force {
		return NewExitError(ExitCommandError, fmt.Sprintf("key %s already exists (use --force to overwrite)", path))
	}

	var k ledger.Keypair
	if opts.Phrase != "" {
		k = ledger.KeypairFromPhrase(opts.Phrase)
	} else {
		var err error
		if k, err = ledger.NewKeypair(); err != nil {
			return WrapExitError(ExitCommandError, "generate key", err)
		}
	}
	if err := ledger.SaveKeypair(path, k); err != nil {
		return WrapExitError(ExitCommandError, "save key", err)
	}
	opts.Logger.Debug("key written", "name", name, "path", path)

	return opts.formatter(cmd).Success(KeyView{Name: name, Path: path, Address: k.Address()})
}
