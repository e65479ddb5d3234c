package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenMSCP/mscp-sdk/internal/ledger"
	"github.com/OpenMSCP/mscp-sdk/internal/social"
)

// PostView is a post record, its slot and the content recovered from the
// linked memo.
type PostView struct {
	Address ledger.Address `json:"address"`
	social.Post
	Content string `json:"content"`
}

// Text implements Texter.
func (v PostView) Text() string {
	return fmt.Sprintf("%s at %d (%s)\n  %s", v.Author, v.Timestamp, v.Address, v.Content)
}

// PostOptions holds flags for the post commands.
type PostOptions struct {
	*RootOptions
	Key string
	At  int64 // pinned timestamp, 0 for now
}

// NewPostCommand creates the post command group.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish and show posts",
	}
	cmd.AddCommand(newPostCreateCommand(rootOpts))
	cmd.AddCommand(newPostShowCommand(rootOpts))
	return cmd
}

func newPostCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: "Publish a post",
		Long: `Publish a post by --key. The post and the memo carrying its content
are submitted in one transaction; the post slot is keyed by author and
timestamp, so one author can post at most once per second.

--at pins the execution time for tests and backfills. It may not be
earlier than the last journaled transaction.

Examples:
  mscp post create "hello world" --key alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostCreate(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Key, "key", "k", "", "author key name or path")
	cmd.Flags().Int64Var(&opts.At, "at", 0, "unix timestamp to post at, not before the last journaled transaction (default now)")

	return cmd
}

func runPostCreate(ctx context.Context, cmd *cobra.Command, opts *PostOptions, content string) error {
	// The payload names the timestamp, so the transaction must execute at
	// exactly that time.
	ts := opts.At
	if ts == 0 {
		ts = time.Now().Unix()
	}
	s, err := openSession(ctx, cmd, opts.RootOptions, ledger.FixedClock(ts))
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.At != 0 {
		last, err := s.lastTimestamp(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "read journal", err)
		}
		if ts < last {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("--at %d is before the last journaled transaction at %d", ts, last))
		}
	}

	author, err := opts.loadKey(opts.Key)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	ixs, err := social.CreatePostWithMemo(author.Address(), ts, content)
	if err != nil {
		return WrapExitError(ExitCommandError, "build instructions", err)
	}
	receipt, err := s.submit(ctx, []ledger.Keypair{author}, ixs...)
	if err != nil {
		return reportSubmitError(f, err)
	}
	slot, _, err := social.PostAddress(author.Address(), ts)
	if err != nil {
		return WrapExitError(ExitCommandError, "derive post address", err)
	}
	return f.Success(SubmitView{Receipt: *receipt, Address: slot})
}

func newPostShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <author> <timestamp>",
		Short:         "Show a post and its content",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid timestamp", err)
			}
			return runPostShow(cmd.Context(), cmd, rootOpts, args[0], ts)
		},
	}
	return cmd
}

func runPostShow(ctx context.Context, cmd *cobra.Command, opts *RootOptions, who string, ts int64) error {
	s, err := openSession(ctx, cmd, opts, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	author, err := opts.resolveAddress(who)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	post, err := s.reader.Post(ctx, author, ts)
	if err != nil {
		return reportReadError(f, "post", err)
	}
	content, err := s.reader.PostContent(ctx, author, ts)
	if err != nil {
		return reportReadError(f, "post content", err)
	}
	slot, _, err := social.PostAddress(author, ts)
	if err != nil {
		return WrapExitError(ExitCommandError, "derive post address", err)
	}
	return f.Success(PostView{Address: slot, Post: post, Content: content})
}
