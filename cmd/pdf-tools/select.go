// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-tools/internal/session"
	"github.com/pdiddy/pdf-tools/pkg/types"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Manage the persistent document selection",
	Long: `The selection is an ordered list of PDF files kept in the state
directory between invocations. The run command operates on it.`,
}

var selectAddCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Append PDF files to the selection",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSelectAdd,
}

var selectListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the selection in order",
	Args:  cobra.NoArgs,
	RunE:  runSelectList,
}

var selectRemoveCmd = &cobra.Command{
	Use:   "remove PATH|POSITION",
	Short: "Remove one document by path or 1-based position",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelectRemove,
}

var selectClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the selection",
	Args:  cobra.NoArgs,
	RunE:  runSelectClear,
}

func init() {
	selectCmd.AddCommand(selectAddCmd, selectListCmd, selectRemoveCmd, selectClearCmd)
	rootCmd.AddCommand(selectCmd)
}

func withSelection(fn func(sess *session.Session) error) error {
	ctx, stop := signalContext()
	defer stop()
	sess, err := openSession(ctx, session.WithPersistence())
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(sess)
}

func runSelectAdd(cmd *cobra.Command, args []string) error {
	return withSelection(func(sess *session.Session) error {
		_, err := sess.Select(args...)
		return err
	})
}

func runSelectList(cmd *cobra.Command, args []string) error {
	return withSelection(func(sess *session.Session) error {
		printSelection(sess.Documents())
		return nil
	})
}

func runSelectRemove(cmd *cobra.Command, args []string) error {
	return withSelection(func(sess *session.Session) error {
		if n, err := strconv.Atoi(args[0]); err == nil {
			_, err := sess.DeselectAt(n - 1)
			return err
		}
		return sess.Deselect(args[0])
	})
}

func runSelectClear(cmd *cobra.Command, args []string) error {
	return withSelection(func(sess *session.Session) error {
		return sess.Clear()
	})
}

func printSelection(docs []types.Document) {
	if len(docs) == 0 {
		fmt.Println("Selection is empty.")
		return
	}
	for i, d := range docs {
		flag := ""
		if d.Encrypted {
			flag = "  encrypted"
		}
		fmt.Printf("%3d  %-50s %4d pages  %9s%s\n", i+1, d.Path, d.PageCount, types.FormatSize(d.Size), flag)
	}
}
