// Package evidence holds the parsed evidence records an investigation runs
// against. Records are produced by an external extraction step; this
// package only stores and serves them.
package evidence

import (
	"encoding/json"
	"time"
)

// Hashes are the digests computed at extraction time.
type Hashes struct {
	SHA256 string `json:"sha256"`
	MD5    string `json:"md5"`
}

// Record is one parsed evidence file. Besides the file name, hashes, IOCs
// and text, the core never interprets its contents.
type Record struct {
	ID         string              `json:"id"`
	CaseID     string              `json:"case_id"`
	Filename   string              `json:"filename" validate:"required"`
	FileType   string              `json:"file_type,omitempty"`
	SizeBytes  int64               `json:"size_bytes" validate:"gte=0"`
	Hashes     Hashes              `json:"hashes"`
	IOCs       map[string][]string `json:"iocs,omitempty"`
	Text       string              `json:"full_text,omitempty"`
	Tampering  string              `json:"tampering,omitempty"`
	IngestedAt time.Time           `json:"ingested_at"`
	Attributes map[string]any      `json:"attributes,omitempty"`
}

// exportedRecord is the layout written by the extraction collaborator.
type exportedRecord struct {
	ID       string `json:"id"`
	CaseID   string `json:"case_id"`
	Metadata struct {
		Filename  string `json:"filename"`
		Extension string `json:"extension"`
		SizeBytes int64  `json:"size_bytes"`
		Created   string `json:"created"`
		Modified  string `json:"modified"`
		Accessed  string `json:"accessed"`
	} `json:"metadata"`
	FileType  string              `json:"file_type"`
	Hashes    Hashes              `json:"hashes"`
	IOCs      map[string][]string `json:"iocs"`
	FullText  string              `json:"full_text"`
	Tampering struct {
		Likelihood string `json:"tampering_likelihood"`
	} `json:"tampering"`
	Artifacts map[string]any `json:"artifacts"`
	Location  any            `json:"location"`
}

func (e exportedRecord) record() Record {
	r := Record{
		ID:        e.ID,
		CaseID:    e.CaseID,
		Filename:  e.Metadata.Filename,
		FileType:  e.FileType,
		SizeBytes: e.Metadata.SizeBytes,
		Hashes:    e.Hashes,
		IOCs:      e.IOCs,
		Text:      e.FullText,
		Tampering: e.Tampering.Likelihood,
	}

	attrs := map[string]any{}
	for k, v := range map[string]any{
		"extension": e.Metadata.Extension,
		"created":   e.Metadata.Created,
		"modified":  e.Metadata.Modified,
		"accessed":  e.Metadata.Accessed,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	if len(e.Artifacts) > 0 {
		attrs["artifacts"] = e.Artifacts
	}
	if e.Location != nil {
		attrs["location"] = e.Location
	}
	if len(attrs) > 0 {
		r.Attributes = attrs
	}
	return r
}

// IOCsJSON renders the record's indicators as a JSON object. Missing
// indicators render as {}.
func (r Record) IOCsJSON() string {
	if len(r.IOCs) == 0 {
		return "{}"
	}
	data, err := json.Marshal(r.IOCs)
	if err != nil {
		return "{}"
	}
	return string(data)
}
