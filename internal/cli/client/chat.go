package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	DocumentID  string             `json:"document_id"`
	Query       string             `json:"query"`
	ChatHistory []ConversationTurn `json:"chat_history,omitempty"`
}

type Source struct {
	PageNumber     int     `json:"page_number"`
	Preview        string  `json:"preview"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Answer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
	Query    string   `json:"query"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <document_id> [query]",
		Short: "Ask questions about an uploaded document",
		Long: `Asks a question about an uploaded document and prints the grounded answer
with page citations. Without a query, starts an interactive session that
keeps the conversation history.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if len(args) == 2 {
				return runChatOnce(cmd, args[0], args[1], outputJSON)
			}
			return runChatInteractive(cmd, args[0])
		},
	}

	return cmd
}

func runChatOnce(cmd *cobra.Command, documentID, query string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	answer, err := askQuestion(api, documentID, query, nil)
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printAnswer(answer)
	return nil
}

func runChatInteractive(cmd *cobra.Command, documentID string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Chatting with document %s. Empty line or Ctrl-D exits.\n", documentID)

	var history []ConversationTurn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			break
		}

		answer, err := askQuestion(api, documentID, query, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		printAnswer(answer)

		history = append(history,
			ConversationTurn{Role: "user", Content: query},
			ConversationTurn{Role: "assistant", Content: answer.Response},
		)
	}

	return scanner.Err()
}

func askQuestion(api *APIClient, documentID, query string, history []ConversationTurn) (*Answer, error) {
	resp, err := api.Post("/chat", ChatRequest{
		DocumentID:  documentID,
		Query:       query,
		ChatHistory: history,
	})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	var answer Answer
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &answer, nil
}

func printAnswer(answer *Answer) {
	fmt.Println(answer.Response)
	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, s := range answer.Sources {
			fmt.Printf("  page %d (%.3f): %s\n", s.PageNumber, s.RelevanceScore, s.Preview)
		}
	}
}
