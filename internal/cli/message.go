package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
)

// MessageView is a direct message and its slot.
type MessageView struct {
	Address ledger.Address `json:"address"`
	social.Message
}

// Text implements Texter.
func (v MessageView) Text() string {
	state := "unread"
	if v.Read {
		state = "read"
	}
	return fmt.Sprintf("%s -> %s at %d [%s] (%s)\n  %s",
		v.Sender, v.Recipient, v.Timestamp, state, v.Address, v.EncryptedContent)
}

// MessageOptions holds flags for the message commands.
type MessageOptions struct {
	*RootOptions
	Key string
}

// NewMessageCommand creates the message command group.
func NewMessageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Send, acknowledge and show direct messages",
	}
	cmd.AddCommand(newMessageSendCommand(rootOpts))
	cmd.AddCommand(newMessageReadCommand(rootOpts))
	cmd.AddCommand(newMessageShowCommand(rootOpts))
	return cmd
}

func newMessageSendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MessageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "send <recipient> <ciphertext>",
		Short: "Send an encrypted message to a profile owner",
		Long: `Send a direct message from --key to recipient, an address or key name.
The content is stored as given; encrypt it before sending. Each message is
written to a freshly generated slot whose address is printed.

Examples:
  mscp message send bob "b64:3q2+7w==" --key alice`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessageSend(cmd.Context(), cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "sender key name or path")

	return cmd
}

func runMessageSend(ctx context.Context, cmd *cobra.Command, opts *MessageOptions, to, ciphertext string) error {
	s, err := openSession(ctx, cmd, opts.RootOptions, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	sender, err := opts.loadKey(opts.Key)
	if err != nil {
		return err
	}
	recipient, err := opts.resolveAddress(to)
	if err != nil {
		return err
	}
	slot, err := ledger.NewKeypair()
	if err != nil {
		return WrapExitError(ExitCommandError, "generate message slot", err)
	}
	f := opts.formatter(cmd)

	ix, err := social.SendMessage(sender.Address(), slot.Address(), recipient, ciphertext)
	if err != nil {
		return WrapExitError(ExitCommandError, "build instruction", err)
	}
	receipt, err := s.submit(ctx, []ledger.Keypair{sender, slot}, ix)
	if err != nil {
		return reportSubmitError(f, err)
	}
	return f.Success(SubmitView{Receipt: *receipt, Address: slot.Address()})
}

func newMessageReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MessageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "read <message>",
		Short:         "Mark a received message as read",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessageRead(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "recipient key name or path")

	return cmd
}

func runMessageRead(ctx context.Context, cmd *cobra.Command, opts *MessageOptions, addr string) error {
	slot, err := ledger.DecodeAddress(addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid message address", err)
	}
	s, err := openSession(ctx, cmd, opts.RootOptions, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	reader, err := opts.loadKey(opts.Key)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	receipt, err := s.submit(ctx, []ledger.Keypair{reader}, social.MarkMessageRead(slot, reader.Address()))
	if err != nil {
		return reportSubmitError(f, err)
	}
	return f.Success(SubmitView{Receipt: *receipt, Address: slot})
}

func newMessageShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <message>",
		Short:         "Show a direct message",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMessageShow(cmd.Context(), cmd, rootOpts, args[0])
		},
	}
}

func runMessageShow(ctx context.Context, cmd *cobra.Command, opts *RootOptions, addr string) error {
	slot, err := ledger.DecodeAddress(addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid message address", err)
	}
	s, err := openSession(ctx, cmd, opts, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	f := opts.formatter(cmd)
	msg, err := s.reader.Message(ctx, slot)
	if err != nil {
		return reportReadError(f, "message", err)
	}
	return f.Success(MessageView{Address: slot, Message: msg})
}
