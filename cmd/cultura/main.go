package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/culturalabs/cultura/internal/completion"
	"github.com/culturalabs/cultura/internal/config"
	"github.com/culturalabs/cultura/internal/gateway"
	"github.com/culturalabs/cultura/internal/geo"
	"github.com/culturalabs/cultura/internal/metrics"
	"github.com/culturalabs/cultura/internal/profile"
	"github.com/culturalabs/cultura/internal/stylist"
)

// Responder produces one reply per message (allows mocking in tests)
type Responder interface {
	Respond(ctx context.Context, userID, message string) (string, error)
}

// ResponderFactory creates a Responder instance
type ResponderFactory func(cfg *config.Config) (Responder, error)

// DefaultResponderFactory builds the full reply pipeline against the
// configured model provider.
func DefaultResponderFactory(cfg *config.Config) (Responder, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("API key not set. Set CULTURA_API_KEY or GEMINI_API_KEY")
	}

	var backend completion.Backend
	var err error
	switch cfg.Provider.Type {
	case "anthropic":
		backend, err = completion.NewAnthropicBackend(cfg.Provider, cfg.Models.MaxTokens)
	default:
		backend, err = completion.NewGeminiBackend(context.Background(), cfg.Provider.APIKey)
	}
	if err != nil {
		return nil, err
	}

	svc := completion.NewService(backend, cfg.Models, metrics.NewRecorder())
	enricher, err := stylist.NewEnricher(svc, geo.NewClient(cfg.Geo), cfg.Cache)
	if err != nil {
		return nil, err
	}
	return stylist.NewPipeline(svc, profile.NewStore(), enricher), nil
}

// ChatOptions for running chat with custom dependencies
type ChatOptions struct {
	ResponderFactory ResponderFactory
	Stdin            io.Reader
	Stdout           io.Writer
	Stderr           io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "cultura",
	Short: "cultura - AI style & culture companion",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in single message or REPL mode",
	RunE:  runChat,
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the full gateway (web + telegram + stats cron)",
	RunE:  runGateway,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cultura status",
	RunE:  runStatus,
}

var messageFlag string

func init() {
	chatCmd.Flags().StringVarP(&messageFlag, "message", "m", "", "Single message to send")
	rootCmd.AddCommand(chatCmd, gatewayCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runChat is the command handler that uses default options
func runChat(cmd *cobra.Command, args []string) error {
	return runChatWithOptions(ChatOptions{})
}

// runChatWithOptions runs chat with injectable dependencies for testing
func runChatWithOptions(opts ChatOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	factory := opts.ResponderFactory
	if factory == nil {
		factory = DefaultResponderFactory
	}

	responder, err := factory(cfg)
	if err != nil {
		return err
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()

	// Single message mode
	if messageFlag != "" {
		reply, err := responder.Respond(ctx, "cli", messageFlag)
		if err != nil {
			return fmt.Errorf("respond error: %w", err)
		}
		fmt.Fprintln(stdout, stylist.FormatReply(reply))
		return nil
	}

	// REPL mode
	fmt.Fprintln(stdout, "cultura chat (type 'exit' to quit)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		reply, err := responder.Respond(ctx, "cli-repl", input)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(stdout, stylist.FormatReply(reply))
	}
	return nil
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Provider: %s\n", cfg.Provider.Type)
	fmt.Printf("Default model: %s\n", cfg.Models.Default)
	fmt.Printf("Roster: %s\n", strings.Join(cfg.Models.Roster, ", "))
	fmt.Printf("Strategy: %s\n", cfg.Models.Strategy)
	if cfg.Provider.APIKey != "" && len(cfg.Provider.APIKey) > 8 {
		masked := cfg.Provider.APIKey[:4] + "..." + cfg.Provider.APIKey[len(cfg.Provider.APIKey)-4:]
		fmt.Printf("API Key: %s\n", masked)
	} else if cfg.Provider.APIKey != "" {
		fmt.Println("API Key: set")
	} else {
		fmt.Println("API Key: not set")
	}
	fmt.Printf("Web: enabled=%v (%s:%d)\n", cfg.Channels.Web.Enabled, cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	return nil
}
