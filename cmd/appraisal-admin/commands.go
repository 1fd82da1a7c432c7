package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"faculty-appraisal-api/config"
	"faculty-appraisal-api/models"
	"faculty-appraisal-api/services"
	"faculty-appraisal-api/utils"

	goversion "github.com/caarlos0/go-version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type app struct {
	db  *gorm.DB
	out io.Writer
	now func() time.Time
}

func (a *app) open() error {
	if a.db != nil {
		return nil
	}
	if err := config.ValidateDatabaseConfig(); err != nil {
		return err
	}
	db, err := config.OpenDatabase(config.LoadDatabaseConfig())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.db = db
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	if a.now == nil {
		a.now = time.Now
	}

	root := &cobra.Command{
		Use:           "appraisal-admin",
		Short:         "Operate the faculty appraisal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.AddCommand(
		newMigrateCmd(a),
		newRoleCmd(a, "promote", models.RoleHOD, "Make a faculty member head of their department"),
		newRoleCmd(a, "demote", models.RoleFaculty, "Return a head of department to faculty"),
		newStatsCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := config.AutoMigrate(a.db); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s schema is up to date\n", color.New(color.FgGreen).Sprint("✓"))
			return nil
		},
	}
}

func newRoleCmd(a *app, use string, role models.Role, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [user-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.Atoi(args[0])
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			actorID, _ := cmd.Flags().GetInt("actor")
			if actorID <= 0 {
				return fmt.Errorf("--actor must be the user id of an administrator")
			}
			if err := a.open(); err != nil {
				return err
			}

			ctx := services.WithRequestMeta(context.Background(), services.RequestMeta{IPAddress: "cli"})
			users := services.NewUserService(a.db)
			actor, err := users.ResolvePrincipal(ctx, actorID)
			if err != nil {
				return fmt.Errorf("resolve actor: %w", err)
			}

			user, err := users.ChangeRole(ctx, actor, userID, role)
			if err != nil {
				return fmt.Errorf("failed to %s user %d: %w", use, userID, err)
			}

			fmt.Fprintf(a.out, "%s %s (%s) is now %s\n",
				color.New(color.FgGreen).Sprint("✓"), user.Name, user.DepartmentName(), user.Role)
			return nil
		},
	}
	cmd.Flags().Int("actor", 0, "user id of the administrator performing the change")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard statistics over every appraisal",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("window")
			window, err := services.ParseWindow(raw)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}

			var records []models.Appraisal
			if err := a.db.Select("appraisal_id", "department", "status", "submission_date").
				Find(&records).Error; err != nil {
				return fmt.Errorf("load appraisals: %w", err)
			}

			renderStats(a.out, services.Aggregate(records, window, a.now()))
			return nil
		},
	}
	cmd.Flags().String("window", "month", "trend window: week, month or year")
	return cmd
}

func renderStats(out io.Writer, agg services.Aggregation) {
	fmt.Fprintf(out, "Appraisals: %d\n\n", agg.Total)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	fmt.Fprintln(w, "------\t-----")
	for _, status := range models.AllStatuses {
		fmt.Fprintf(w, "%s\t%d\n", statusColor(status).Sprint(utils.PresentStatus(status).Label), agg.CountsByStatus[status])
	}
	w.Flush()

	fmt.Fprintf(out, "\nApproved %.2f%%  Rejected %.2f%%  Pending %.2f%%\n\n",
		agg.ApprovalRate, agg.RejectionRate, agg.PendingRate)

	departments := make([]string, 0, len(agg.CountsByDepartment))
	for department := range agg.CountsByDepartment {
		departments = append(departments, department)
	}
	sort.Strings(departments)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPARTMENT\tCOUNT")
	fmt.Fprintln(w, "----------\t-----")
	for _, department := range departments {
		fmt.Fprintf(w, "%s\t%d\n", department, agg.CountsByDepartment[department])
	}
	w.Flush()

	fmt.Fprintf(out, "\nTrend (%s)\n", agg.Window)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, point := range agg.Trend {
		fmt.Fprintf(w, "%s\t%d\n", point.Label, point.Count)
	}
	w.Flush()
}

func statusColor(status models.AppraisalStatus) *color.Color {
	switch utils.PresentStatus(status).Color {
	case "success":
		return color.New(color.FgGreen)
	case "danger":
		return color.New(color.FgRed)
	case "warning":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, buildVersion(version, commit, date, builtBy, treeState).String())
		},
	}
}

func buildVersion(version, commit, date, builtBy, treeState string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("appraisal-admin", "Administration tool for the faculty appraisal API", ""),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}
