package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/assetpipe/internal/database"
	"github.com/conneroisu/assetpipe/internal/logging"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run one SQL statement and print the result as YAML",
	Long: `Run one SQL statement against a database. The sqlite driver is built in;
the DSN is a file path or "file::memory:". Use - to read the statement from
stdin.

Examples:
  assetpipe sql --dsn build.db "CREATE TABLE IF NOT EXISTS releases (name TEXT)"
  assetpipe sql --dsn build.db "SELECT name FROM releases"
  assetpipe sql batches 2500`,
	Args: cobra.ExactArgs(1),
	RunE: runSQL,
}

var batchesCmd = &cobra.Command{
	Use:   "batches <total>",
	Short: "Print the batch boundaries used for paged inserts",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatches,
}

var (
	sqlDriver string
	sqlDSN    string
	sqlLimit  int
)

func init() {
	rootCmd.AddCommand(sqlCmd)
	sqlCmd.AddCommand(batchesCmd)

	sqlCmd.Flags().StringVar(&sqlDriver, "driver", database.DefaultDriver, "database/sql driver name")
	sqlCmd.Flags().StringVar(&sqlDSN, "dsn", "", "data source name")
	batchesCmd.Flags().IntVar(&sqlLimit, "limit", 0, "fixed end index instead of batching")
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := args[0]
	if query == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read statement: %w", err)
		}
		query = string(raw)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelWarn, Output: os.Stderr})
	result, err := database.NewConnector(logger).InsertSQL(cmd.Context(), database.Config{
		Driver: sqlDriver,
		DSN:    sqlDSN,
	}, query)
	if err != nil {
		return err
	}

	out := map[string]interface{}{"rows_affected": result.RowsAffected}
	if len(result.Columns) > 0 {
		rows := make([]map[string]interface{}, 0, len(result.Rows))
		for _, row := range result.Rows {
			record := make(map[string]interface{}, len(result.Columns))
			for i, col := range result.Columns {
				record[col] = row[i]
			}
			rows = append(rows, record)
		}
		out["rows"] = rows
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func runBatches(cmd *cobra.Command, args []string) error {
	total, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid total %q: %w", args[0], err)
	}

	current := 0
	for current < total {
		end, err := database.IterationLimit(sqlLimit, current, total)
		if err != nil {
			return err
		}
		if end > total {
			end = total
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d-%d\n", current, end)
		if end <= current {
			break
		}
		current = end
	}
	return nil
}
