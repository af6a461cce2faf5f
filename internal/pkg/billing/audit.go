package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// AuditEntry is the structured record emitted once per terminal event.
type AuditEntry struct {
	Timestamp   string `json:"timestamp"`
	EventType   string `json:"event"`
	CustomerKey string `json:"customer_key"`
	AmountCents *int64 `json:"amount_cents,omitempty"`
	Integrity   string `json:"integrity"`
}

// AuditSink receives one record per terminal event.
type AuditSink interface {
	Record(entry AuditEntry)
}

type logAuditSink struct{}

// NewLogAuditSink returns a sink that writes audit records as JSON log lines.
func NewLogAuditSink() AuditSink {
	return logAuditSink{}
}

func (logAuditSink) Record(entry AuditEntry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if entry.Integrity == "" {
		entry.Integrity = IntegrityTag(entry)
	}
	line, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[AUDIT] marshal failed: %v", err)
		return
	}
	log.Printf("[AUDIT] %s", line)
}

// IntegrityTag derives a content hash over the audit fields so tampering with
// a stored record is detectable.
func IntegrityTag(entry AuditEntry) string {
	amount := ""
	if entry.AmountCents != nil {
		amount = fmt.Sprintf("%d", *entry.AmountCents)
	}
	sum := sha256.Sum256([]byte(entry.Timestamp + "|" + entry.EventType + "|" + entry.CustomerKey + "|" + amount))
	return hex.EncodeToString(sum[:])
}
