package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsuite/pkg/formfile"
	"github.com/goliatone/go-formsuite/pkg/openapi"
)

func openapiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Convert forms to and from OpenAPI documents",
	}
	cmd.AddCommand(openapiExportCmd(), openapiImportCmd())
	return cmd
}

func openapiExportCmd() *cobra.Command {
	var (
		serverURL string
		version   string
		format    string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Describe a form's public endpoints as OpenAPI 3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadDefinition(args[0])
			if err != nil {
				return err
			}
			doc, err := openapi.Export(form, openapi.ExportOptions{ServerURL: serverURL, Version: version})
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			if format == string(formfile.FormatYAML) {
				var generic any
				if err := yaml.Unmarshal(data, &generic); err != nil {
					return err
				}
				if data, err = yaml.Marshal(generic); err != nil {
					return err
				}
			} else {
				data = append(data, '\n')
			}
			return writeOutput(cmd, output, data)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&serverURL, "server-url", "", "API base listed under servers")
	flags.StringVar(&version, "version", "", "Document version")
	flags.StringVar(&format, "format", string(formfile.FormatJSON), "Output format (json, yaml)")
	flags.StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	return cmd
}

func openapiImportCmd() *cobra.Command {
	var (
		operation string
		output    string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "import SOURCE",
		Short: "Derive a form definition from an operation's request body",
		Long: `Read an OpenAPI document from a file or http(s) URL.

Without --operation the operations are listed. With it, the JSON request
body schema of that operation becomes a draft form definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := openapi.NewReader(openapi.WithHTTPClient(newHTTPClient(timeout)))
			doc, err := reader.Load(cmd.Context(), openapi.ParseSource(args[0]))
			if err != nil {
				return err
			}
			if operation == "" {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "OPERATION\tMETHOD\tPATH\tBODY")
				for _, op := range openapi.Operations(doc) {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", op.ID, op.Method, op.Path, op.HasBody)
				}
				return tw.Flush()
			}
			form, err := openapi.Import(doc, operation)
			if err != nil {
				return err
			}
			if output != "" {
				return formfile.WriteFile(output, form)
			}
			data, err := formfile.Encode(form, formfile.FormatYAML)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", data)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&operation, "operation", "", "Operation id to import")
	flags.StringVarP(&output, "output", "o", "", "Output form file (.yaml, .yml or .json)")
	flags.DurationVar(&timeout, "timeout", 15*time.Second, "HTTP timeout for URL sources")
	return cmd
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
