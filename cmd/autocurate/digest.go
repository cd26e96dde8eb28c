package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/autocurate/autocurate/internal/digest"
)

var (
	digestUserID int64
	digestsLimit int
)

// digestCmd composes one digest for a user.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate a digest for a user",
	Long: `Generate, store, and print a personalized digest.

Examples:
  autocurate digest --user 7`,
	RunE: runDigest,
}

// digestsCmd lists a user's stored digests.
var digestsCmd = &cobra.Command{
	Use:   "digests",
	Short: "List a user's stored digests",
	RunE:  runDigests,
}

func init() {
	digestCmd.Flags().Int64Var(&digestUserID, "user", 0, "user id")
	_ = digestCmd.MarkFlagRequired("user")

	digestsCmd.Flags().Int64Var(&digestUserID, "user", 0, "user id")
	digestsCmd.Flags().IntVar(&digestsLimit, "limit", 10, "maximum digests to list")
	_ = digestsCmd.MarkFlagRequired("user")
}

func runDigest(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	composer, err := a.newComposer()
	if err != nil {
		return err
	}

	d, err := composer.Compose(cmd.Context(), digestUserID)
	return printDigest(cmd.OutOrStdout(), d, err)
}

// printDigest renders a composed digest. An empty retrieval is a normal
// "nothing new" outcome, not a failure exit.
func printDigest(w io.Writer, d *digest.Digest, err error) error {
	if errors.Is(err, digest.ErrNoContent) {
		fmt.Fprintln(w, "nothing new to digest")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n\n%s\n\n%d articles, %d words, %d min read\n",
		d.Title, d.Content, d.ArticleCount, d.WordCount, d.ReadTimeMinutes)
	return nil
}

func runDigests(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	digests, err := a.store.ListDigests(cmd.Context(), digestUserID, digestsLimit)
	if err != nil {
		return err
	}

	if len(digests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no digests")
		return nil
	}
	for _, d := range digests {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%d articles, %d min read)\n",
			d.GeneratedAt.Format("2006-01-02 15:04"), d.Title, d.ArticleCount, d.ReadTimeMinutes)
	}
	return nil
}
