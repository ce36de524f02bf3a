package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/newthinker/llmlab/internal/storage/runlog"
	"github.com/newthinker/llmlab/internal/usage"
)

// RunsPrefix is the key prefix under which call documents are archived.
const RunsPrefix = "runs/"

// adhocRun groups records that were produced outside a named run.
const adhocRun = "adhoc"

// ArchiveSink stores each record as a JSON document in a run log.
type ArchiveSink struct {
	store runlog.Store
}

var _ Sink = (*ArchiveSink)(nil)

func NewArchiveSink(store runlog.Store) *ArchiveSink {
	return &ArchiveSink{store: store}
}

func (s *ArchiveSink) Name() string { return "archive" }

func (s *ArchiveSink) Record(ctx context.Context, rec usage.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.ID, err)
	}
	if err := s.store.Put(ctx, RecordKey(rec), data); err != nil {
		return fmt.Errorf("archiving record %s: %w", rec.ID, err)
	}
	return nil
}

// RecordKey returns runs/<run-id>/<timestamp>-<id>.json. Keys of one run sort
// in call order.
func RecordKey(rec usage.Record) string {
	run := rec.RunID
	if run == "" {
		run = adhocRun
	}
	name := fmt.Sprintf("%s-%s.json", rec.Timestamp.UTC().Format("20060102T150405.000000000Z"), rec.ID)
	return path.Join(RunsPrefix+run, name)
}

// LoadRecord reads one archived record.
func LoadRecord(ctx context.Context, store runlog.Store, key string) (usage.Record, error) {
	var rec usage.Record
	data, err := store.Get(ctx, key)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decoding %s: %w", key, err)
	}
	return rec, nil
}
