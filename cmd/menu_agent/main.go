// Package main provides the entry point for the menu crawler agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "menu_agent",
	Short: "Competitor menu crawler",
	Long:  "Menu crawler extracts competitor dispensary menus via structured API interception, with DOM scraping and OCR+AI fallbacks, and persists normalized product and promotion rows.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
