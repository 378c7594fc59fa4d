package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	chattui "cuepoint/cmd/cuepoint/chat"
	"cuepoint/internal/chat"
	"cuepoint/internal/engine"
	"cuepoint/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the CuePoint assistant",
	Long: `Opens the interactive chat console. Matched topics feed a local
context engine, so suggestions adapt as the conversation goes on.

Use "chat ask" for a single question without the console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChatTUI()
	},
}

var chatAskCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChatAsk,
}

func runChatTUI() error {
	responder, err := chat.LoadRulebook(cfg.Chat.RulebookPath)
	if err != nil {
		return fmt.Errorf("failed to load rulebook: %w", err)
	}
	store := engine.NewStore(session.NewSessionID(), nil)
	return chattui.Run(responder, store)
}

func runChatAsk(cmd *cobra.Command, args []string) error {
	responder, err := chat.LoadRulebook(cfg.Chat.RulebookPath)
	if err != nil {
		return fmt.Errorf("failed to load rulebook: %w", err)
	}

	resp := responder.Respond(strings.Join(args, " "))
	fmt.Println(resp.Reply)
	if len(resp.Interests) > 0 {
		fmt.Printf("(topics: %s)\n", strings.Join(resp.Interests, ", "))
	}
	return nil
}

func init() {
	chatCmd.AddCommand(chatAskCmd)
}
