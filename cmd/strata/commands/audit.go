package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stratacms/strata/internal/cli/output"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/query"
)

var (
	auditOutput   string
	auditEntityID int
	auditUserID   int
	auditTypes    []string
	auditPage     int
	auditPageSize int
	auditOldest   bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries",
	Long: `List audit entries, newest first.

Examples:
  # Latest entries as a table
  strata audit list

  # Publish and unpublish entries of one document as JSON
  strata audit list --entity 1054 --type Publish --type Unpublish -o json

  # Second page of 50 entries as YAML
  strata audit list --page 1 --size 50 -o yaml`,
	RunE: runAuditList,
}

func init() {
	auditListCmd.Flags().StringVarP(&auditOutput, "output", "o", "table", "Output format (table|json|yaml)")
	auditListCmd.Flags().IntVar(&auditEntityID, "entity", 0, "Only entries of this entity id")
	auditListCmd.Flags().IntVar(&auditUserID, "user", 0, "Only entries of this user id")
	auditListCmd.Flags().StringSliceVar(&auditTypes, "type", nil, "Only entries of these audit types")
	auditListCmd.Flags().IntVar(&auditPage, "page", 0, "Page index, starting at 0")
	auditListCmd.Flags().IntVar(&auditPageSize, "size", 20, "Page size")
	auditListCmd.Flags().BoolVar(&auditOldest, "oldest-first", false, "Order oldest entries first")

	auditCmd.AddCommand(auditListCmd)
}

// AuditList is a list of audit entries for table rendering.
type AuditList []*models.AuditItem

// Headers implements TableRenderer.
func (al AuditList) Headers() []string {
	return []string{"ID", "DATE", "TYPE", "ENTITY", "USER", "COMMENT"}
}

// Rows implements TableRenderer.
func (al AuditList) Rows() [][]string {
	rows := make([][]string, 0, len(al))
	for _, item := range al {
		entity := strconv.Itoa(item.EntityID)
		if item.EntityType != "" {
			entity = item.EntityType + " " + entity
		}
		rows = append(rows, []string{
			strconv.Itoa(item.ID),
			item.CreateDate.Local().Format("2006-01-02 15:04:05"),
			string(item.AuditType),
			entity,
			strconv.Itoa(item.UserID),
			item.Comment,
		})
	}
	return rows
}

// auditPageResult is the json/yaml shape of one page.
type auditPageResult struct {
	Items    []*models.AuditItem `json:"items" yaml:"items"`
	Total    int64               `json:"total" yaml:"total"`
	Page     int                 `json:"page" yaml:"page"`
	PageSize int                 `json:"page_size" yaml:"page_size"`
}

func runAuditList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(auditOutput)
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	s, err := rt.Scopes.CreateScope(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	items, total, err := rt.Repositories.Audit.GetPaged(s, auditFilter(), auditPage, auditPageSize,
		auditDirection(), auditTypeList(), nil)
	if err != nil {
		return fmt.Errorf("failed to list audit entries: %w", err)
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), format, false)
	if format != output.FormatTable {
		return printer.Print(auditPageResult{Items: items, Total: total, Page: auditPage, PageSize: auditPageSize})
	}
	if len(items) == 0 {
		printer.Println("No audit entries found.")
		return nil
	}
	if err := printer.Print(AuditList(items)); err != nil {
		return err
	}
	printer.Printf("\nShowing %d of %d entries (page %d)\n", len(items), total, auditPage)
	return nil
}

func auditFilter() *query.Query {
	q := query.New()
	if auditEntityID != 0 {
		q.Where(query.Eq("entityId", auditEntityID))
	}
	if auditUserID != 0 {
		q.Where(query.Eq("userId", auditUserID))
	}
	return q
}

func auditDirection() query.Direction {
	if auditOldest {
		return query.Ascending
	}
	return query.Descending
}

func auditTypeList() []models.AuditType {
	types := make([]models.AuditType, len(auditTypes))
	for i, t := range auditTypes {
		types[i] = models.AuditType(t)
	}
	return types
}
