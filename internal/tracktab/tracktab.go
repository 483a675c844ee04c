// Package tracktab parses cell-tracking ground-truth track tables: plain
// text, whitespace-delimited, four columns (track_id, start_frame,
// end_frame, parent_id), no header row.
package tracktab

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Record is one track's lifespan entry.
type Record struct {
	TrackID    int32
	StartFrame int
	EndFrame   int
	ParentID   int32
}

// Table is the parsed, validated track table. When present it is the
// authoritative source of which track ids exist; the record order is the
// file order.
type Table struct {
	Records []Record
}

// Load reads and parses the table at path. The file is parsed exactly
// once; malformed rows fail the whole load.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &Table{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("track table %s line %d: want 4 columns, got %d", path, line, len(fields))
		}
		vals := make([]int64, 4)
		for i, fv := range fields {
			v, err := strconv.ParseInt(fv, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("track table %s line %d column %d: %w", path, line, i+1, err)
			}
			vals[i] = v
		}
		rec := Record{
			TrackID:    int32(vals[0]),
			StartFrame: int(vals[1]),
			EndFrame:   int(vals[2]),
			ParentID:   int32(vals[3]),
		}
		if rec.TrackID == 0 {
			return nil, fmt.Errorf("track table %s line %d: track id 0 is reserved for background", path, line)
		}
		if rec.EndFrame < rec.StartFrame {
			return nil, fmt.Errorf("track table %s line %d: end_frame %d before start_frame %d", path, line, rec.EndFrame, rec.StartFrame)
		}
		t.Records = append(t.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("track table %s: %w", path, err)
	}
	return t, nil
}

// TrackIDs returns the distinct track ids in first-occurrence order.
func (t *Table) TrackIDs() []int32 {
	seen := make(map[int32]struct{}, len(t.Records))
	ids := make([]int32, 0, len(t.Records))
	for _, r := range t.Records {
		if _, ok := seen[r.TrackID]; ok {
			continue
		}
		seen[r.TrackID] = struct{}{}
		ids = append(ids, r.TrackID)
	}
	return ids
}
