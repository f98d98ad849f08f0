package model

import (
    "bytes"
    "encoding/json"
    "fmt"
    "time"
)

// ISOMillis is the layout used for timestamps sent to the backend.
const ISOMillis = "2006-01-02T15:04:05.000Z07:00"

var timestampLayouts = []string{
    time.RFC3339Nano,
    "2006-01-02T15:04:05.999999999",
    "2006-01-02T15:04:05",
    "2006-01-02 15:04:05",
    "2006-01-02",
}

// Timestamp decodes the date and date-time shapes the backend emits (ISO
// instants, zone-less local date-times and plain dates, read as UTC).  A
// zero Timestamp encodes as null.
type Timestamp struct{ time.Time }

func (t *Timestamp) UnmarshalJSON(b []byte) error {
    if bytes.Equal(b, []byte("null")) {
        t.Time = time.Time{}
        return nil
    }
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        var ms int64
        if err := json.Unmarshal(b, &ms); err != nil {
            return fmt.Errorf("timestamp: %s", b)
        }
        t.Time = time.UnixMilli(ms).UTC()
        return nil
    }
    if s == "" {
        t.Time = time.Time{}
        return nil
    }
    for _, layout := range timestampLayouts {
        if parsed, err := time.Parse(layout, s); err == nil {
            t.Time = parsed
            return nil
        }
    }
    return fmt.Errorf("timestamp: unsupported format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
    if t.IsZero() {
        return []byte("null"), nil
    }
    return json.Marshal(t.UTC().Format(ISOMillis))
}
