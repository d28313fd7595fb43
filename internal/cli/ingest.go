package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ticktrack/internal/store"
)

// IngestResult is the output of the ingest commands.
type IngestResult struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// NewIngestCommand creates the ingest command and its subcommands.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load raw records or mirror rows from a file",
		Long: `Load fixtures into the raw record or mirror tables.

Both tables are normally filled by the live feed. These commands exist for
development and replaying captured data. Use "-" to read from stdin.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "records FILE",
		Short: "Append raw records from a JSON-lines file",
		Long: `Append raw records from a JSON-lines file.

Each line is an object:
  {"tick_handle": "h-1", "received_at": "2026-03-01T11:55:00Z", "payload": {...}}

received_at defaults to now. A missing or null payload stores a record
without structured data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestRecords(rootOpts, cmd, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "mirror FILE",
		Short: "Upsert mirror rows from a YAML list",
		Long: `Upsert mirror rows from a YAML list.

Example file:
  - location: Alpha
    side1: Fuel Rats
    side2: Gold Syndicate
    stake1: Rescue Depot
    score1: 1
    score2: 0
    kind: war`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestMirror(rootOpts, cmd, args[0])
		},
	})

	return cmd
}

func runIngestRecords(opts *RootOptions, cmd *cobra.Command, path string) error {
	ctx := commandContext(cmd)

	in, err := stdinOr(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	records, err := parseRecordLines(in, time.Now())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid records file", err)
	}

	_, st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	for _, rec := range records {
		if _, err := st.InsertRawRecord(ctx, rec); err != nil {
			return WrapExitError(ExitFailure, "failed to store raw record", err)
		}
	}
	return reportIngest(opts, cmd, IngestResult{Kind: "records", Count: len(records)})
}

func parseRecordLines(r io.Reader, now time.Time) ([]store.RawRecord, error) {
	var out []store.RawRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !gjson.Valid(text) {
			return nil, fmt.Errorf("line %d: not valid JSON", line)
		}

		obj := gjson.Parse(text)
		rec := store.RawRecord{
			TickHandle: obj.Get("tick_handle").String(),
			ReceivedAt: now,
		}
		if at := obj.Get("received_at"); at.Exists() {
			t, err := time.Parse(time.RFC3339Nano, at.String())
			if err != nil {
				return nil, fmt.Errorf("line %d: received_at: %w", line, err)
			}
			rec.ReceivedAt = t
		}
		if p := obj.Get("payload"); p.Exists() && p.Type != gjson.Null {
			rec.Payload = []byte(p.Raw)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return out, nil
}

func runIngestMirror(opts *RootOptions, cmd *cobra.Command, path string) error {
	ctx := commandContext(cmd)

	in, err := stdinOr(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	var rows []store.MirrorRow
	if err := yaml.NewDecoder(in).Decode(&rows); err != nil && err != io.EOF {
		return WrapExitError(ExitCommandError, "invalid mirror file", err)
	}
	for i, row := range rows {
		if strings.TrimSpace(row.Location) == "" {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid mirror file: row %d has no location", i+1))
		}
	}

	_, st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	for _, row := range rows {
		if err := st.UpsertMirrorRow(ctx, row); err != nil {
			return WrapExitError(ExitFailure, "failed to store mirror row", err)
		}
	}
	return reportIngest(opts, cmd, IngestResult{Kind: "mirror", Count: len(rows)})
}

func reportIngest(opts *RootOptions, cmd *cobra.Command, res IngestResult) error {
	return opts.formatter(cmd).Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "Ingested %d %s rows\n", res.Count, res.Kind)
	})
}
