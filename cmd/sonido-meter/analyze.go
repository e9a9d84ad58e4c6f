package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-meter/assessment"
	"github.com/RyanBlaney/sonido-meter/config"
	"github.com/RyanBlaney/sonido-meter/transcode"
	"github.com/RyanBlaney/sonido-meter/transcribe"
)

type analyzeOptions struct {
	category   string
	expected   string
	transcript string
	format     string
}

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Analyse one recording and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			svc, err := buildService(root.cfg)
			if err != nil {
				return err
			}
			defer svc.Close(cmd.Context())

			result, err := svc.AnalyzeAudio(cmd.Context(), assessment.AudioRequest{
				Data:            data,
				Category:        opts.category,
				ExpectedText:    opts.expected,
				TranscribedText: opts.transcript,
			})
			if err != nil {
				return err
			}

			return writeResult(cmd.OutOrStdout(), result, opts.format)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "other", "speech category, one of the keys listed by the categories command")
	cmd.Flags().StringVar(&opts.expected, "expected", "", "text the speaker was asked to read")
	cmd.Flags().StringVar(&opts.transcript, "transcript", "", "transcript of the recording; transcribed when empty and a provider is configured")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json or yaml")
	return cmd
}

// buildService wires the decoder, transcriber and engine described by cfg
func buildService(cfg *config.Config, opts ...assessment.ServiceOption) (*assessment.Service, error) {
	engine, err := assessment.NewEngine(&cfg.Engine)
	if err != nil {
		return nil, err
	}

	var fallback assessment.Decoder
	if cfg.Server.UseFFmpeg {
		fallback = transcode.NewFFmpegDecoder(&cfg.Decoder)
	}
	opts = append(opts, assessment.WithDecoder(transcode.NewAutoDecoder(fallback)))

	transcriber, err := transcribe.New(cfg.Transcriber)
	if err != nil {
		return nil, err
	}
	if transcriber != nil {
		opts = append(opts, assessment.WithTranscriber(transcriber))
	}

	return assessment.NewService(engine, cfg.Service, opts...), nil
}

// writeResult prints result as indented JSON or as YAML with the same keys
func writeResult(w io.Writer, result *assessment.AnalysisResult, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		// go through JSON so YAML keys follow the json tags
		raw, err := json.Marshal(result)
		if err != nil {
			return err
		}
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return err
		}
		resetStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// resetStyle drops the flow style inherited from JSON syntax
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
