package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/AAROliveira/astro-ai-deepseek/internal/config"
	"github.com/AAROliveira/astro-ai-deepseek/internal/runner"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Optional path to configuration file")
	binary := flag.String("binary", "", "Ollama executable (overrides config)")
	model := flag.String("model", "", "Model to run (overrides config)")
	threads := flag.Int("threads", 0, "Number of inference threads (overrides config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	if *binary != "" {
		cfg.Ollama.Binary = *binary
	}
	if *model != "" {
		cfg.Ollama.Model = *model
	}
	if *threads > 0 {
		cfg.Ollama.Threads = *threads
	}

	if err := cfg.Ollama.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid ollama configuration: %v\n", err)
		os.Exit(1)
	}

	// Ctrl-C reaches the child through the terminal; the launcher waits for it to exit
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	cmd := runner.OllamaCommand(cfg.Ollama.Binary, cfg.Ollama.Model, cfg.Ollama.Threads)
	err := runner.Run(context.Background(), cmd)
	signal.Stop(interrupts)

	var exitErr *runner.ExitError
	switch {
	case err == nil:
		return
	case errors.Is(err, runner.ErrNotInstalled):
		fmt.Println("Error: Ollama is not installed or not found in PATH.")
	case errors.As(err, &exitErr):
		fmt.Printf("Error: Ollama failed with exit code %d\n", exitErr.Code)
	default:
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}
