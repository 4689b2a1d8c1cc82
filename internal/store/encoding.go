package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/monishSR/vectordb/internal/collection"
	"github.com/monishSR/vectordb/internal/metrics"
	"github.com/monishSR/vectordb/internal/parallel"
)

// dataMagic marks the start of an encoded collection blob; formatVersion
// lets a future encoding evolve without breaking old files outright.
const (
	dataMagic     uint32 = 0xCAFEB0D5
	formatVersion uint8  = 1
)

func encodeCollection(c *collection.Collection) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(c.Snapshot()); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, dataMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(&out, binary.LittleEndian, formatVersion); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func decodeCollection(blob []byte, tuning collection.Tuning, pool *parallel.Pool, rec *metrics.Recorder) (*collection.Collection, error) {
	r := bytes.NewReader(blob)

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != dataMagic {
		return nil, fmt.Errorf("bad magic %#x", magic)
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}

	var snap collection.Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}

	return collection.FromSnapshot(snap, tuning, pool, rec), nil
}
