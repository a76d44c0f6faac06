package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"contractflow/internal/app"
	"contractflow/internal/contract"
	"contractflow/internal/document"
	"contractflow/internal/platform/config"
)

// readSubmission reads a submission JSON file, or stdin for "-".
func readSubmission(path string) (contract.Submission, error) {
	var sub contract.Submission
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return sub, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sub); err != nil {
		return sub, fmt.Errorf("decode submission: %w", err)
	}
	return sub, nil
}

func parse(v *viper.Viper, path string) (contract.Request, error) {
	sub, err := readSubmission(path)
	if err != nil {
		return contract.Request{}, err
	}
	return contract.Parse(sub, time.Now(), contract.ParseOptions{StrictVariant: v.GetBool("strict")})
}

func validateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <submission.json|->",
		Short: "Validate a submission and print the normalized request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parse(v, args[0])
			out := cmd.OutOrStdout()
			var verr *contract.ValidationError
			if errors.As(err, &verr) {
				for _, field := range verr.Missing {
					fmt.Fprintf(out, "missing: %s\n", field)
				}
				for _, field := range verr.Fields()[len(verr.Missing):] {
					fmt.Fprintf(out, "invalid: %s (%s)\n", field, verr.Invalid[field])
				}
				return fmt.Errorf("submission is invalid")
			}
			if err != nil {
				return err
			}
			if req.VariantDefaulted {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: unknown contract type, defaulted to sprint1")
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(req)
		},
	}
}

func renderCmd(v *viper.Viper) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <submission.json|->",
		Short: "Render the agreement DOCX locally without calling any provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parse(v, args[0])
			if err != nil {
				return err
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			renderer, err := app.NewRenderer(cfg, slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			if err != nil {
				return err
			}
			doc, err := renderer.Render(req)
			if err != nil {
				return err
			}
			if output == "" {
				output = document.Filename(req)
			}
			if err := os.WriteFile(output, doc, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(doc))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default <Company>_<TYPE>_Agreement.docx)")
	return cmd
}

func submitCmd(v *viper.Viper) *cobra.Command {
	var idempotencyKey string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "submit <submission.json|->",
		Short: "POST a submission to a running server's webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := readSubmission(args[0])
			if err != nil {
				return err
			}
			body, err := json.Marshal(sub)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			url := strings.TrimRight(v.GetString("server"), "/") + "/webhook/contract"
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			if key := v.GetString("api_key"); key != "" {
				req.Header.Set("X-API-Key", key)
			}
			if idempotencyKey != "" {
				req.Header.Set("Idempotency-Key", idempotencyKey)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if json.Indent(&pretty, respBody, "", "  ") == nil {
				respBody = pretty.Bytes()
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(respBody))
			if resp.StatusCode >= http.StatusMultipleChoices {
				return fmt.Errorf("server answered %s", resp.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "request timeout")
	return cmd
}
