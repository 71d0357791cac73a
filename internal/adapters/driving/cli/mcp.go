package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose documents to MCP clients",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve pagechat documents over the Model Context Protocol.

The server speaks JSON-RPC on stdio, which is what desktop assistants expect
when they launch pagechat themselves. With --port it listens on HTTP instead,
for the MCP Inspector or a remote client.

Tools:
  list_documents   documents and their indexing status
  document_status  status of one document, with the failure reason if any
  ask_document     ask a ready document a question; answers carry citations

Resources:
  pagechat://documents
  pagechat://documents/{id}
  pagechat://chats/{id}/messages

Client configuration:
  {"mcpServers": {"pagechat": {"command": "pagechat", "args": ["mcp", "serve"]}}}`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "listen on this HTTP port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Document: documentService,
		Chat:     chatService,
	}, version)
	if err != nil {
		return err
	}

	if port <= 0 {
		return server.Run(cmd.Context())
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
