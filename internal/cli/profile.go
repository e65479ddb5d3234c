package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/runtime"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
)

// SubmitView reports a committed transaction and the record it wrote.
type SubmitView struct {
	runtime.Receipt
	Address ledger.Address `json:"address"`
}

// Text implements Texter.
func (v SubmitView) Text() string {
	return fmt.Sprintf("committed %s (seq %d, t=%d) -> %s", v.TxID, v.Seq, v.Timestamp, v.Address)
}

// ProfileView is a profile record and its slot.
type ProfileView struct {
	Address ledger.Address `json:"address"`
	social.Profile
}

// Text implements Texter.
func (v ProfileView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s (%s)\n", v.Username, v.Owner)
	if v.Bio != "" {
		fmt.Fprintf(&b, "  bio:     %s\n", v.Bio)
	}
	if v.AvatarReference != "" {
		fmt.Fprintf(&b, "  avatar:  %s\n", v.AvatarReference)
	}
	fmt.Fprintf(&b, "  created: %d\n", v.CreatedAt)
	fmt.Fprintf(&b, "  updated: %d\n", v.UpdatedAt)
	fmt.Fprintf(&b, "  slot:    %s", v.Address)
	return b.String()
}

// ProfileOptions holds flags for the profile commands.
type ProfileOptions struct {
	*RootOptions
	Key    string
	Bio    string
	Avatar string
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Create, update and show profiles",
	}
	cmd.AddCommand(newProfileCreateCommand(rootOpts))
	cmd.AddCommand(newProfileUpdateCommand(rootOpts))
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	return cmd
}

func newProfileCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create the signer's profile",
		Long: `Create the profile owned by --key. Each identity has exactly one
profile; usernames are 3 to 20 characters.

Examples:
  mscp profile create alice --key alice --bio "hello"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileCreate(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "owner key name or path")
	cmd.Flags().StringVar(&opts.Bio, "bio", "", "profile bio")
	cmd.Flags().StringVar(&opts.Avatar, "avatar", "", "avatar reference")

	return cmd
}

func runProfileCreate(ctx context.Context, cmd *cobra.Command, opts *ProfileOptions, username string) error {
	s, err := openSession(ctx, cmd, opts.RootOptions, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	owner, err := opts.loadKey(opts.Key)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	ix, err := social.CreateProfile(owner.Address(), username, opts.Bio, opts.Avatar)
	if err != nil {
		return WrapExitError(ExitCommandError, "build instruction", err)
	}
	receipt, err := s.submit(ctx, []ledger.Keypair{owner}, ix)
	if err != nil {
		return reportSubmitError(f, err)
	}
	slot, _, err := social.ProfileAddress(owner.Address())
	if err != nil {
		return WrapExitError(ExitCommandError, "derive profile address", err)
	}
	return f.Success(SubmitView{Receipt: *receipt, Address: slot})
}

func newProfileUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the signer's bio or avatar",
		Long: `Update the profile owned by --key. Only the flags given are changed;
pass an empty value to clear a field.

Examples:
  mscp profile update --key alice --bio "new bio"
  mscp profile update --key alice --avatar ""`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var bio, avatar *string
			if cmd.Flags().Changed("bio") {
				bio = &opts.Bio
			}
			if cmd.Flags().Changed("avatar") {
				avatar = &opts.Avatar
			}
			return runProfileUpdate(cmd.Context(), cmd, opts, bio, avatar)
		},
	}

	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "owner key name or path")
	cmd.Flags().StringVar(&opts.Bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&opts.Avatar, "avatar", "", "new avatar reference")

	return cmd
}

func runProfileUpdate(ctx context.Context, cmd *cobra.Command, opts *ProfileOptions, bio, avatar *string) error {
	if bio == nil && avatar == nil {
		return NewExitError(ExitCommandError, "nothing to update: pass --bio or --avatar")
	}
	s, err := openSession(ctx, cmd, opts.RootOptions, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	owner, err := opts.loadKey(opts.Key)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	ix, err := social.UpdateProfile(owner.Address(), bio, avatar)
	if err != nil {
		return WrapExitError(ExitCommandError, "build instruction", err)
	}
	receipt, err := s.submit(ctx, []ledger.Keypair{owner}, ix)
	if err != nil {
		return reportSubmitError(f, err)
	}
	slot, _, err := social.ProfileAddress(owner.Address())
	if err != nil {
		return WrapExitError(ExitCommandError, "derive profile address", err)
	}
	return f.Success(SubmitView{Receipt: *receipt, Address: slot})
}

func newProfileShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <owner>",
		Short:         "Show a profile by owner address or key name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(cmd.Context(), cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runProfileShow(ctx context.Context, cmd *cobra.Command, opts *RootOptions, who string) error {
	s, err := openSession(ctx, cmd, opts, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	owner, err := opts.resolveAddress(who)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	profile, err := s.reader.Profile(ctx, owner)
	if err != nil {
		return reportReadError(f, "profile", err)
	}
	slot, _, err := social.ProfileAddress(owner)
	if err != nil {
		return WrapExitError(ExitCommandError, "derive profile address", err)
	}
	return f.Success(ProfileView{Address: slot, Profile: profile})
}
