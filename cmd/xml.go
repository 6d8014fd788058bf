package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/assetpipe/internal/xmlparse"
)

var xmlCmd = &cobra.Command{
	Use:   "xml [file]",
	Short: "Convert an XML document to YAML or JSON",
	Long: `Convert an XML document into plain data. Attributes are listed under "$",
text next to attributes or children under "_", and child elements become
lists. Reads stdin when no file or - is given.

Examples:
  assetpipe xml sitemap.xml
  curl -s https://example.com/feed.xml | assetpipe xml --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runXML,
}

var xmlFormat string

func init() {
	rootCmd.AddCommand(xmlCmd)

	xmlCmd.Flags().StringVarP(&xmlFormat, "format", "f", "yaml", "output format (yaml, json)")
}

func runXML(cmd *cobra.Command, args []string) error {
	var input io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	}

	doc, err := xmlparse.Parse(input)
	if err != nil {
		return err
	}

	if xmlFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	}
	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	return encoder.Close()
}
