package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/markdown"
	"github.com/custodia-labs/pagechat/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about documents",
	Long: `Chats hold the question and answer history for a document.

"chat use" selects a document (and optionally one of its chats); "chat ask"
then sends questions to it. The selection is remembered between runs.`,
}

var chatListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List chats of a document, or all chats",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChatList,
}

var chatNewCmd = &cobra.Command{
	Use:   "new [doc-id]",
	Short: "Start a new chat about a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatNew,
}

var chatShowCmd = &cobra.Command{
	Use:   "show [chat-id]",
	Short: "Print a chat's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatShow,
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete [chat-id]",
	Short: "Delete a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatDelete,
}

var chatUseCmd = &cobra.Command{
	Use:   "use [doc-id] [chat-id]",
	Short: "Select the document (and chat) questions go to",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runChatUse,
}

var chatAskCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the selected document a question",
	Long: `Sends a question to the current chat of the selected document and prints
the answer with its page citations. Use --doc to pick a document for this
question; it becomes the selection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChatAsk,
}

var (
	chatTitle   string
	chatAskDoc  int64
	chatRaw     bool
	chatDelYes  bool
	chatShowAll bool
)

func init() {
	chatNewCmd.Flags().StringVarP(&chatTitle, "title", "t", "", "chat title (default: \"Chat <date>\")")
	chatAskCmd.Flags().Int64VarP(&chatAskDoc, "doc", "d", 0, "document to ask")
	chatAskCmd.Flags().BoolVar(&chatRaw, "raw", false, "print the answer without markdown rendering")
	chatShowCmd.Flags().BoolVar(&chatRaw, "raw", false, "print messages without markdown rendering")
	chatDeleteCmd.Flags().BoolVarP(&chatDelYes, "yes", "y", false, "skip the confirmation prompt")
	chatListCmd.Flags().BoolVarP(&chatShowAll, "all", "a", false, "list chats of every document")

	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatShowCmd)
	chatCmd.AddCommand(chatDeleteCmd)
	chatCmd.AddCommand(chatUseCmd)
	chatCmd.AddCommand(chatAskCmd)
	rootCmd.AddCommand(chatCmd)
}

func runChatList(cmd *cobra.Command, args []string) error {
	if chatService == nil || selectionService == nil {
		return errors.New("chat service not configured")
	}

	var documentID int64
	switch {
	case len(args) == 1:
		id, err := parseID("document", args[0])
		if err != nil {
			return err
		}
		documentID = id
	case !chatShowAll:
		session, err := selectionService.Restore(cmd.Context())
		if err != nil {
			return err
		}
		if session.SelectedDocumentID == nil {
			return fmt.Errorf("%w: pass a document id or --all", domain.ErrNoDocumentSelected)
		}
		documentID = *session.SelectedDocumentID
	}

	chats, err := chatService.List(cmd.Context(), documentID)
	if err != nil {
		return fmt.Errorf("failed to list chats: %w", err)
	}

	if len(chats) == 0 {
		cmd.Println("No chats.")
		return nil
	}

	current, hasCurrent := chatService.CurrentChat(documentID)
	for i := range chats {
		marker := " "
		if hasCurrent && chats[i].ID == current {
			marker = "*"
		}
		doc := "-"
		if chats[i].DocumentID != nil {
			doc = fmt.Sprintf("%d", *chats[i].DocumentID)
		}
		cmd.Printf("%s %-6d doc %-5s %-17s %s\n", marker, chats[i].ID, doc, formatTime(chats[i].CreatedAt), chats[i].DisplayTitle())
	}
	return nil
}

func runChatNew(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	documentID, err := parseID("document", args[0])
	if err != nil {
		return err
	}

	chat, err := chatService.Create(cmd.Context(), &documentID, chatTitle)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	cmd.Printf("Created chat %d: %s\n", chat.ID, chat.DisplayTitle())
	return nil
}

func runChatShow(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	chatID, err := parseID("chat", args[0])
	if err != nil {
		return err
	}

	chat, err := chatService.Get(cmd.Context(), chatID)
	if err != nil {
		return fmt.Errorf("failed to get chat: %w", err)
	}
	messages, err := chatService.Messages(cmd.Context(), chatID)
	if err != nil {
		return fmt.Errorf("failed to get messages: %w", err)
	}

	cmd.Printf("%s\n\n", chat.DisplayTitle())
	if len(messages) == 0 {
		cmd.Println("No messages yet.")
		return nil
	}

	for _, m := range messages {
		switch m.Role {
		case domain.RoleUser:
			cmd.Printf("> %s\n\n", m.Content)
		default:
			printAnswer(cmd, m)
			cmd.Println()
		}
	}
	return nil
}

func runChatDelete(cmd *cobra.Command, args []string) error {
	if selectionService == nil {
		return errors.New("selection service not configured")
	}

	chatID, err := parseID("chat", args[0])
	if err != nil {
		return err
	}

	if !chatDelYes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete chat %d?", chatID))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if _, err := selectionService.Restore(cmd.Context()); err != nil {
		return err
	}
	if err := selectionService.DeleteChat(cmd.Context(), chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	cmd.Printf("Deleted chat %d\n", chatID)
	return nil
}

func runChatUse(cmd *cobra.Command, args []string) error {
	if selectionService == nil {
		return errors.New("selection service not configured")
	}

	documentID, err := parseID("document", args[0])
	if err != nil {
		return err
	}

	if _, err := selectionService.Restore(cmd.Context()); err != nil {
		return err
	}

	chatID, err := selectionService.SelectDocument(cmd.Context(), documentID)
	if err != nil {
		return fmt.Errorf("failed to select document: %w", err)
	}

	if len(args) == 2 {
		chatID, err = parseID("chat", args[1])
		if err != nil {
			return err
		}
		if err := selectionService.SelectChat(cmd.Context(), chatID); err != nil {
			return fmt.Errorf("failed to select chat: %w", err)
		}
	}

	cmd.Printf("Using document %d, chat %d\n", documentID, chatID)
	return nil
}

func runChatAsk(cmd *cobra.Command, args []string) error {
	if selectionService == nil || documentService == nil {
		return errors.New("selection service not configured")
	}

	ctx := cmd.Context()
	session, err := selectionService.Restore(ctx)
	if err != nil {
		return err
	}

	switch {
	case chatAskDoc > 0:
		if session.SelectedDocumentID == nil || *session.SelectedDocumentID != chatAskDoc {
			if _, err := selectionService.SelectDocument(ctx, chatAskDoc); err != nil {
				return fmt.Errorf("failed to select document: %w", err)
			}
		}
	case session.SelectedDocumentID == nil:
		return fmt.Errorf("%w: run \"pagechat chat use <doc-id>\" or pass --doc", domain.ErrNoDocumentSelected)
	}

	// The ready check in Ask reads the document list.
	if _, err := documentService.List(ctx); err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	answer, err := selectionService.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	printAnswer(cmd, *answer)
	return nil
}

// printAnswer prints an assistant turn with its citations. Without --raw
// the markdown is styled for the terminal; glamour falls back to plain text
// when stdout is not one.
func printAnswer(cmd *cobra.Command, m domain.Message) {
	if chatRaw {
		cmd.Println(m.Content)
		if m.HasSources() {
			cmd.Println()
			cmd.Println(markdown.Sources(m.Sources))
		}
		return
	}
	cmd.Println(markdown.NewRenderer(100, "").RenderMessage(m))
}
