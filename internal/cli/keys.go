package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
)

// keyPath maps a key name to its file in the keys directory. Arguments that
// already look like paths are used as given.
func (o *RootOptions) keyPath(name string) string {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') || filepath.Ext(name) == ".json" {
		return name
	}
	return filepath.Join(o.Config.Keys.Dir, name+".json")
}

func (o *RootOptions) loadKey(name string) (ledger.Keypair, error) {
	if name == "" {
		return ledger.Keypair{}, NewExitError(ExitCommandError, "--key is required")
	}
	k, err := ledger.LoadKeypair(o.keyPath(name))
	if err != nil {
		return ledger.Keypair{}, WrapExitError(ExitCommandError, fmt.Sprintf("load key %q", name), err)
	}
	return k, nil
}

// resolveAddress accepts a base58 address or the name of a stored key.
func (o *RootOptions) resolveAddress(s string) (ledger.Address, error) {
	if a, err := ledger.DecodeAddress(s); err == nil {
		return a, nil
	}
	k, err := ledger.LoadKeypair(o.keyPath(s))
	if err != nil {
		return ledger.ZeroAddress, WrapExitError(ExitCommandError, fmt.Sprintf("%q is neither an address nor a known key", s), err)
	}
	return k.Address(), nil
}
