package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/cache"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errNoSharedCache = errors.New("cache flush needs the redis cache backend; memory caches live inside each server process")

func newRootCmd(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackerctl",
		Short:         "Operate the tracker's jobs, cache and reference data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.close()
		},
	}
	root.AddCommand(
		newJobsCmd(env),
		newDLQCmd(env),
		newCacheCmd(env),
		newTokenCmd(env),
		newMigrateCmd(env),
		newSeedCmd(env),
	)
	return root
}

func newJobsCmd(env *environment) *cobra.Command {
	jobs := &cobra.Command{Use: "jobs", Short: "Inspect background jobs"}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print job counts by queue and state",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := res.jobs.Counts(cmd.Context())
			if err != nil {
				return err
			}
			states := []queue.State{queue.StateQueued, queue.StateActive, queue.StateFailed, queue.StateCompleted, queue.StateDead}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			header := []string{"QUEUE"}
			for _, s := range states {
				header = append(header, strings.ToUpper(string(s)))
			}
			fmt.Fprintln(w, strings.Join(header, "\t"))
			for _, name := range queue.Names() {
				row := []string{string(name)}
				for _, s := range states {
					row = append(row, humanize.Comma(int64(counts[name][s])))
				}
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			return w.Flush()
		},
	}

	var filter queue.Filter
	var queueName, state string
	list := &cobra.Command{
		Use:   "list",
		Short: "List jobs, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Queue = queue.Name(queueName)
			filter.State = queue.State(state)
			return listJobs(cmd, env, filter)
		},
	}
	list.Flags().StringVar(&queueName, "queue", "", "filter by queue (push, email, compute)")
	list.Flags().StringVar(&state, "state", "", "filter by state")
	list.Flags().IntVar(&filter.Limit, "limit", 50, "maximum rows")

	var olderThan time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete completed and dead jobs finished before the cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			n, err := res.jobs.Purge(cmd.Context(), time.Now().UTC().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s jobs\n", humanize.Comma(int64(n)))
			return nil
		},
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "age of the jobs to delete")

	jobs.AddCommand(stats, list, purge)
	return jobs
}

func newDLQCmd(env *environment) *cobra.Command {
	dlq := &cobra.Command{Use: "dlq", Short: "Inspect and requeue dead-lettered jobs"}

	var queueName string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List dead jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listJobs(cmd, env, queue.Filter{Queue: queue.Name(queueName), State: queue.StateDead, Limit: limit})
		},
	}
	list.Flags().StringVar(&queueName, "queue", "", "filter by queue (push, email, compute)")
	list.Flags().IntVar(&limit, "limit", 50, "maximum rows")

	requeue := &cobra.Command{
		Use:   "requeue <job-id>...",
		Short: "Move dead jobs back to their queue with a fresh attempt budget",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid job id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			var errs []error
			for _, id := range ids {
				if err := res.jobs.Requeue(cmd.Context(), id, time.Now().UTC()); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %s\n", id)
			}
			return errors.Join(errs...)
		},
	}

	dlq.AddCommand(list, requeue)
	return dlq
}

func listJobs(cmd *cobra.Command, env *environment, filter queue.Filter) error {
	res, err := env.get(cmd.Context())
	if err != nil {
		return err
	}
	jobs, err := res.jobs.List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUEUE\tTYPE\tSTATE\tATTEMPTS\tCREATED\tLAST ERROR")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			j.ID, j.Queue, j.Type, j.State, j.Attempts, j.MaxAttempts,
			humanize.Time(j.CreatedAt), j.LastError)
	}
	return w.Flush()
}

func newCacheCmd(env *environment) *cobra.Command {
	c := &cobra.Command{Use: "cache", Short: "Manage the shared cache"}

	var model string
	flush := &cobra.Command{
		Use:   "flush",
		Short: "Delete cached responses and computed values",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			if res.cache == nil {
				return errNoSharedCache
			}
			pattern := "*"
			if model != "" {
				pattern = cache.ModelPattern(model)
			}
			n, err := res.cache.Delete(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s entries\n", humanize.Comma(int64(n)))
			return nil
		},
	}
	flush.Flags().StringVar(&model, "model", "", "only flush responses cached for this model")

	c.AddCommand(flush)
	return c
}

func newTokenCmd(env *environment) *cobra.Command {
	t := &cobra.Command{Use: "token", Short: "Issue access tokens"}
	issue := &cobra.Command{
		Use:   "issue <employee-id>",
		Short: "Print a signed access token for an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid employee id %q: %w", args[0], err)
			}
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			token, err := res.tokens.GenerateToken(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	t.AddCommand(issue)
	return t
}

func newMigrateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|status|version>",
		Short:     "Run a database migration command",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			return res.migrate(cmd.Context(), args[0])
		},
	}
}

func newSeedCmd(env *environment) *cobra.Command {
	var taskTypes, projectTypes []string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Create task and project types; the oldest of each is the conversion default",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(taskTypes) == 0 && len(projectTypes) == 0 {
				return errors.New("nothing to seed: pass --task-type or --project-type")
			}
			res, err := env.get(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range taskTypes {
				tt, err := res.refs.CreateTaskType(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("task type %q: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "task type %s %s\n", tt.ID, tt.Name)
			}
			for _, name := range projectTypes {
				pt, err := res.refs.CreateProjectType(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("project type %q: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "project type %s %s\n", pt.ID, pt.Name)
			}
			return nil
		},
	}
	seed.Flags().StringSliceVar(&taskTypes, "task-type", nil, "task type name (repeatable)")
	seed.Flags().StringSliceVar(&projectTypes, "project-type", nil, "project type name (repeatable)")
	return seed
}
