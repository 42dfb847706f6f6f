package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/sitebudget/internal/cli"
	"github.com/theirongolddev/sitebudget/internal/form"
	"github.com/theirongolddev/sitebudget/internal/model"
	"github.com/theirongolddev/sitebudget/internal/state"
)

var (
	flagProjName    string
	flagProjAddress string
	flagProjStatus  string
	flagProjStart   string
	flagProjTarget  string
	flagProjSqft    string
	flagProjBudget  string
	flagYes         bool
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project", "p"},
	Short:   "List and manage projects",
	RunE:    runProjectsList,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show one project with its budget summary",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummary,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	RunE:  runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update a project's details or override its status",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project with all its items and expenses",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

var projectFieldFlags = []string{"name", "address", "status", "start", "target", "sqft", "budget"}

// changedFields returns the names in fields that were set on the command line.
func changedFields(cmd *cobra.Command, fields []string) []string {
	var out []string
	for _, f := range fields {
		if cmd.Flags().Changed(f) {
			out = append(out, f)
		}
	}
	return out
}

func projectFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagProjName, "name", "", "Project name")
	c.Flags().StringVar(&flagProjAddress, "address", "", "Site address")
	c.Flags().StringVar(&flagProjStatus, "status", "", "not_started, in_progress or completed")
	c.Flags().StringVar(&flagProjStart, "start", "", "Start date (YYYY-MM-DD)")
	c.Flags().StringVar(&flagProjTarget, "target", "", "Target completion date (YYYY-MM-DD)")
	c.Flags().StringVar(&flagProjSqft, "sqft", "", "Total square footage")
	c.Flags().StringVar(&flagProjBudget, "budget", "", "Total budget")
}

func init() {
	projectFlags(projectsCreateCmd)
	projectFlags(projectsUpdateCmd)
	projectsDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")

	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsCreateCmd, projectsUpdateCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	list := state.NewProjectList(a.svc.Projects, a.cache)
	if err := list.Refresh(ctx); err != nil {
		return err
	}
	if list.FromCache {
		fmt.Println(cli.Warn(fmt.Sprintf("  Offline: showing projects cached %s", cli.FormatAge(list.FetchedAt))))
	}

	projects := list.Projects()
	if len(projects) == 0 {
		fmt.Println("\n  No projects yet.")
		fmt.Println("  Create one with `sitebudget projects create --name \"...\" --budget 250000`.")
		fmt.Println()
		return nil
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		name := p.Name
		if p.ID == a.cfg.General.DefaultProject {
			name += " *"
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			name,
			cli.FormatStatus(p.Status),
			cli.FormatNullCurrency(p.TotalBudget),
			cli.FormatDate(p.StartDate),
			cli.FormatDate(p.TargetCompletionDate),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Projects (%d)", len(projects)),
		Headers: []string{"ID", "Name", "Status", "Budget", "Start", "Target"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runProjectsCreate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	in := form.Project{
		Name:                 flagProjName,
		Address:              flagProjAddress,
		Status:               flagProjStatus,
		StartDate:            flagProjStart,
		TargetCompletionDate: flagProjTarget,
		TotalSqft:            flagProjSqft,
		TotalBudget:          flagProjBudget,
	}
	if !cmd.Flags().Changed("name") {
		if err := projectForm(&in).Run(); err != nil {
			return err
		}
	}
	payload, err := in.Parse()
	if err != nil {
		return err
	}
	if payload.Status == "" {
		payload.Status = model.StatusNotStarted
	}

	ctx, cancel := requestContext()
	defer cancel()

	p, err := state.NewProjectList(a.svc.Projects, a.cache).Create(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Created project %d: %s", p.ID, p.Name)))
	fmt.Println()
	return nil
}

// projectForm prompts for the project fields.
func projectForm(in *form.Project) *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Project name").Value(&in.Name),
		huh.NewInput().Title("Address").Value(&in.Address),
		huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(&in.StartDate),
		huh.NewInput().Title("Target completion").Placeholder("YYYY-MM-DD").Value(&in.TargetCompletionDate),
		huh.NewInput().Title("Square feet").Value(&in.TotalSqft),
		huh.NewInput().Title("Total budget").Placeholder("250000").Value(&in.TotalBudget),
	))
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID("project", args[0])
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	changed := changedFields(cmd, projectFieldFlags)

	// A lone --status is a manual override sent as a partial update.
	if len(changed) == 1 && changed[0] == "status" {
		st := model.ParseStatus(flagProjStatus)
		p, err := a.svc.Projects.Patch(ctx, id, model.StatusPatch(st))
		if notFound(err, "Project") {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(cli.Success(fmt.Sprintf("Project %d status set to %s", id, cli.FormatStatus(st))))
		if p.Status != "" && model.ParseStatus(string(p.Status)) != st {
			fmt.Println(cli.Warn("  The server reported status " + cli.FormatStatus(p.Status)))
		}
		fmt.Println()
		return nil
	}

	current, err := a.svc.Projects.Get(ctx, id)
	if notFound(err, "Project") {
		return nil
	}
	if err != nil {
		return err
	}

	in := projectFormFrom(current)
	fields := map[string]*string{
		"name":    &in.Name,
		"address": &in.Address,
		"status":  &in.Status,
		"start":   &in.StartDate,
		"target":  &in.TargetCompletionDate,
		"sqft":    &in.TotalSqft,
		"budget":  &in.TotalBudget,
	}
	for _, name := range changed {
		v, _ := cmd.Flags().GetString(name)
		*fields[name] = v
	}
	if len(changed) == 0 {
		if err := projectForm(&in).Run(); err != nil {
			return err
		}
	}

	payload, err := in.Parse()
	if err != nil {
		return err
	}
	p, err := state.NewProjectList(a.svc.Projects, a.cache).Update(ctx, id, payload)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Updated project %d: %s", p.ID, p.Name)))
	fmt.Println()
	return nil
}

// projectFormFrom renders a project back into editable form fields.
func projectFormFrom(p model.Project) form.Project {
	f := form.Project{
		Name:                 p.Name,
		Address:              p.Address,
		Status:               string(p.Status),
		StartDate:            p.StartDate.String(),
		TargetCompletionDate: p.TargetCompletionDate.String(),
	}
	if p.TotalSqft != nil {
		f.TotalSqft = strconv.Itoa(*p.TotalSqft)
	}
	if p.TotalBudget.Valid {
		f.TotalBudget = p.TotalBudget.Decimal.String()
	}
	return f
}

func runProjectsDelete(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := parseID("project", args[0])
	if err != nil {
		return err
	}

	if !flagYes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete project %d and all of its line items and expenses?", id)).
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("\n  Cancelled.")
			return nil
		}
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := state.NewProjectList(a.svc.Projects, a.cache).Delete(ctx, id); err != nil {
		if notFound(err, "Project") {
			return nil
		}
		return err
	}
	fmt.Println()
	fmt.Println(cli.Success(fmt.Sprintf("Deleted project %d", id)))
	fmt.Println()
	return nil
}
