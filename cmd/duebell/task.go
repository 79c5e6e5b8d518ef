package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/fentz26/duebell/internal/models"
	"github.com/fentz26/duebell/internal/period"
	"github.com/fentz26/duebell/internal/scheduler"
	"github.com/fentz26/duebell/internal/tasklist"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task with a due time",
	Example: `  duebell add --desc "Pay rent" --due "2024-06-15 10:00"
  duebell add --desc "Stand-up" --due 2024-06-10T09:30 --wait`,
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runList,
}

var editCmd = &cobra.Command{
	Use:   "edit [ref]",
	Short: "Edit a task's description or due time",
	Long:  `Edit a task. ref is a task id, a unique id prefix, or #N for the N-th task.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var rmCmd = &cobra.Command{
	Use:     "rm [ref]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var historyCmd = &cobra.Command{
	Use:   "history [ref]",
	Short: "Show the decision records for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var (
	taskDesc   string
	taskDue    string
	waitForDue bool
	periodTag  string
)

func init() {
	addCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description (required)")
	addCmd.Flags().StringVar(&taskDue, "due", "", "Due time, e.g. 2024-06-15 10:00 (required)")
	addCmd.Flags().BoolVar(&waitForDue, "wait", false, "Stay open until the reminder fires")
	addCmd.MarkFlagRequired("desc")
	addCmd.MarkFlagRequired("due")

	listCmd.Flags().StringVar(&periodTag, "period", "all", "Period filter (today, week, month, all)")

	editCmd.Flags().StringVar(&taskDesc, "desc", "", "New description")
	editCmd.Flags().StringVar(&taskDue, "due", "", "New due time")
}

func runAdd(cmd *cobra.Command, args []string) error {
	due, err := models.ParseTimestamp(taskDue, time.Local)
	if err != nil {
		return err
	}

	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if waitForDue {
		sess.negotiate(ctx)
	}

	task, state, err := sess.svc.Create(taskDesc, due)
	if errors.Is(err, tasklist.ErrPastDue) {
		return fmt.Errorf("please select a future date and time: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Created task: %s (due %s)\n", models.ShortID(task.ID), formatDue(task.TimeStamp))
	if !waitForDue || state != scheduler.StateArmed {
		return nil
	}

	fmt.Printf("Waiting for reminder (Ctrl+C to stop)...\n")
	final, err := sess.sched.Wait(ctx, task.ID)
	if errors.Is(err, context.Canceled) {
		fmt.Println("Stopped waiting; reminder not delivered.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Reminder %s.\n", final)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := period.Parse(periodTag)
	if err != nil {
		return err
	}

	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	tasks := sess.svc.List(p)
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	all := sess.svc.List(period.All)
	position := make(map[string]int, len(all))
	for i, t := range all {
		position[t.ID] = i + 1
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tDUE\tDESCRIPTION")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", position[t.ID], models.ShortID(t.ID), formatDue(t.TimeStamp), truncate(t.Description, 50))
	}
	return w.Flush()
}

func runEdit(cmd *cobra.Command, args []string) error {
	if taskDesc == "" && taskDue == "" {
		return errors.New("nothing to change: pass --desc and/or --due")
	}
	var due time.Time
	if taskDue != "" {
		t, err := models.ParseTimestamp(taskDue, time.Local)
		if err != nil {
			return err
		}
		due = t
	}

	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	task, _, err := sess.svc.Edit(args[0], strings.TrimSpace(taskDesc), due)
	if err != nil {
		return err
	}
	fmt.Printf("Updated task: %s (due %s)\n", models.ShortID(task.ID), formatDue(task.TimeStamp))
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	task, err := sess.svc.Delete(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted task: %s %q\n", models.ShortID(task.ID), task.Description)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	task, err := sess.svc.Resolve(args[0])
	if err != nil {
		return err
	}
	entries, err := sess.store.ListPDR(task.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Outcome, e.Details)
	}
	return w.Flush()
}

// truncate shortens s to at most n characters, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func formatDue(t time.Time) string {
	return t.Local().Format("Mon 2006-01-02 15:04")
}
