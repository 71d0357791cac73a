package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage uploaded documents",
	Long:    `Upload PDFs, follow their indexing, and list or delete them.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show indexing status",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentStatus,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [file.pdf]...",
	Short: "Upload PDF files",
	Long: `Uploads one or more PDF files. Files that are not PDFs are rejected
before anything is sent to the backend.

With --wait the command follows indexing until every upload is ready or failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentUpload,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chats",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentWatchCmd = &cobra.Command{
	Use:   "watch [doc-id]",
	Short: "Follow a document until indexing finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentWatch,
}

var documentWatchDirCmd = &cobra.Command{
	Use:   "watch-dir [dir]",
	Short: "Upload every PDF dropped into a directory",
	Long: `Watches a directory and uploads each PDF written into it. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentWatchDir,
}

var (
	documentJSON bool
	uploadWait   bool
	deleteYes    bool
)

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentUploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "wait for indexing to finish")
	documentDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentStatusCmd)
	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentWatchCmd)
	documentCmd.AddCommand(documentWatchDirCmd)
	rootCmd.AddCommand(documentCmd)
}

// documentJSONView is the --json shape of a document.
type documentJSONView struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	IndexPath    *string   `json:"index_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		views := make([]documentJSONView, len(docs))
		for i, d := range docs {
			views[i] = documentJSONView{
				ID:           d.ID,
				Filename:     d.Filename,
				Status:       d.Status.String(),
				CreatedAt:    d.CreatedAt,
				IndexPath:    d.IndexPath,
				ErrorMessage: d.ErrorMessage,
			}
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents. Upload one with: pagechat document upload <file.pdf>")
		return nil
	}

	cmd.Printf("%-6s %-10s %-17s %s\n", "ID", "STATUS", "UPLOADED", "FILENAME")
	for _, d := range docs {
		cmd.Printf("%-6d %-10s %-17s %s\n", d.ID, d.Status, formatTime(d.CreatedAt), d.Filename)
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseID("document", args[0])
	if err != nil {
		return err
	}

	doc, err := documentService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %d\n\n", doc.ID)
	cmd.Printf("  Filename: %s\n", doc.Filename)
	cmd.Printf("  Status:   %s\n", doc.Status.Description())
	cmd.Printf("  Uploaded: %s\n", formatTime(doc.CreatedAt))
	if doc.IndexPath != nil {
		cmd.Printf("  Index:    %s\n", *doc.IndexPath)
	}
	if doc.ErrorMessage != "" {
		cmd.Printf("  Error:    %s\n", doc.ErrorMessage)
	}
	return nil
}

func runDocumentStatus(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseID("document", args[0])
	if err != nil {
		return err
	}

	report, err := documentService.Status(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("%d: %s\n", report.ID, report.Status)
	if report.ErrorMessage != "" {
		cmd.Printf("  %s\n", report.ErrorMessage)
	}
	return nil
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	var (
		uploaded []int64
		failed   int
	)
	for _, path := range args {
		doc, err := documentService.UploadFile(cmd.Context(), path)
		if err != nil {
			failed++
			cmd.PrintErrf("✗ %s: %v\n", path, err)
			continue
		}
		uploaded = append(uploaded, doc.ID)
		cmd.Printf("✓ %s uploaded as document %d (%s)\n", doc.Filename, doc.ID, doc.Status)
	}

	if uploadWait {
		for _, id := range uploaded {
			if err := followDocument(cmd, id); err != nil {
				return err
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if selectionService == nil {
		return errors.New("selection service not configured")
	}

	id, err := parseID("document", args[0])
	if err != nil {
		return err
	}

	if !deleteYes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete document %d and all its chats?", id))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := selectionService.DeleteDocument(cmd.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("Document %d was already gone.\n", id)
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %d\n", id)
	return nil
}

func runDocumentWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := parseID("document", args[0])
	if err != nil {
		return err
	}
	return followDocument(cmd, id)
}

// followDocument prints status transitions until the document is terminal.
func followDocument(cmd *cobra.Command, id int64) error {
	events, err := documentService.Watch(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to watch document %d: %w", id, err)
	}

	var last domain.StatusEvent
	for ev := range events {
		last = ev
		line := fmt.Sprintf("%d: %s", ev.DocumentID, ev.Status)
		if ev.Message != "" {
			line += " - " + ev.Message
		}
		cmd.Println(line)
	}

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if last.Status == domain.StatusError {
		return fmt.Errorf("document %d failed to index", id)
	}
	return nil
}

func runDocumentWatchDir(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	dir := args[0]
	results, err := documentService.WatchDirectory(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for PDFs (Ctrl+C to stop)\n", dir)
	for r := range results {
		if r.Err != nil {
			cmd.PrintErrf("✗ %s: %v\n", r.Path, r.Err)
			continue
		}
		cmd.Printf("✓ %s uploaded as document %d\n", r.Path, r.Document.ID)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
