package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"quizstream/pkg/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	rootCommand := cobra.Command{
		Use:           "quizctl",
		Short:         "Generate study questions from text",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCommand.AddCommand(newGenerateCommand())

	if err := rootCommand.Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newGenerateCommand() *cobra.Command {
	var serverURL string
	var inputFile string
	var showAnswers bool

	cmd := &cobra.Command{
		Use:   "generate [text]",
		Short: "Generate study questions from text or a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args, inputFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("no input text: pass text as an argument, via --file, or on stdin")
			}

			bold := color.New(color.Bold)
			answerColor := color.New(color.FgGreen)

			state, err := client.New(serverURL).GenerateQuestions(cmd.Context(), text, client.Handler{
				OnQuestion: func(q client.QuestionRecord, n int) {
					bold.Printf("%d. %s\n", n, q.Prompt)
					for i, option := range q.Options {
						fmt.Printf("   %c) %s\n", 'a'+i, option)
					}
					if showAnswers && q.Answer != "" {
						answerColor.Printf("   Answer: %s\n", q.Answer)
					}
					fmt.Println()
				},
				OnError: func(message string) {
					color.Red("Generation failed: %s", message)
				},
				OnDone: func(count int) {
					fmt.Printf("Received %d questions.\n", count)
				},
			})
			if err != nil {
				return err
			}
			if state == client.StateFailed {
				return fmt.Errorf("generation did not complete")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "QuizStream server URL")
	cmd.Flags().StringVar(&inputFile, "file", "", "read input text from a file")
	cmd.Flags().BoolVar(&showAnswers, "show-answers", false, "print answers for multiple choice questions")

	return cmd
}

func readInput(args []string, inputFile string, stdin io.Reader) (string, error) {
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", inputFile, err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
