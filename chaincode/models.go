package chaincode

import "encoding/json"

// GeoPoint is a WGS84 coordinate pair
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Quantity is an amount together with its unit, e.g. 25 kg of fresh root
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Performer identifies the actor that performed a recorded action
type Performer struct {
	Identifier string `json:"identifier"`
}

// Reference points at a previously recorded entry by its id
type Reference struct {
	Reference string `json:"reference"`
}

// ZoneRestrictions are the harvesting rules attached to a zone. The season
// list, daily cap and certification flag are recorded with each validated
// collection event; only the per-species season window table is enforced
// against the harvest date.
type ZoneRestrictions struct {
	Seasons               []string `json:"seasons"`
	MaxQuantityPerDay     float64  `json:"maxQuantityPerDay"`
	CertificationRequired bool     `json:"certificationRequired"`
}

// Zone is an approved harvesting region with a circular geo-fence.
// Zones are seeded once at ledger initialization and never modified.
type Zone struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Center          GeoPoint         `json:"center"`
	RadiusMeters    float64          `json:"radiusMeters"`
	ApprovedSpecies []string         `json:"approvedSpecies"`
	Restrictions    ZoneRestrictions `json:"restrictions"`
}

// GeoFenceResult is the outcome of validating a location/species pair
// against the zone registry
type GeoFenceResult struct {
	Approved     bool              `json:"approved"`
	ZoneID       string            `json:"zoneId,omitempty"`
	Restrictions *ZoneRestrictions `json:"restrictions,omitempty"`
	Reason       string            `json:"reason,omitempty"`
}

// BlockchainMeta is transaction-derived metadata attached to a record at
// creation time. Timestamp and TxID come from the ordered transaction, never
// from a local clock. PreviousHash digests only the immediate referenced
// record's stored bytes.
type BlockchainMeta struct {
	TxID         string `json:"txId"`
	Timestamp    string `json:"timestamp"`
	Submitter    string `json:"submitter,omitempty"`
	PreviousHash string `json:"previousHash,omitempty"`
}

// CollectionEvent is a farmer's harvest record
type CollectionEvent struct {
	ID                string          `json:"id"`
	BotanicalName     string          `json:"botanicalName"`
	Location          *GeoPoint       `json:"location"`
	Quantity          Quantity        `json:"quantity"`
	PerformedDateTime string          `json:"performedDateTime"`
	Performer         Performer       `json:"performer"`
	GeoFence          *GeoFenceResult `json:"geoFence,omitempty"`
	Meta              *BlockchainMeta `json:"blockchainMeta,omitempty"`
}

// ProcessingInput names the record a processing step consumed and how much of it
type ProcessingInput struct {
	Reference string   `json:"reference"`
	Quantity  Quantity `json:"quantity"`
}

// Period is a start/end pair of ISO dates
type Period struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// ProcessingStep is a downstream transformation (drying, grinding, ...) of a
// prior collection event or processing step
type ProcessingStep struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Input     ProcessingInput `json:"input"`
	Period    Period          `json:"period"`
	Performer Performer       `json:"performer"`
	Meta      *BlockchainMeta `json:"blockchainMeta,omitempty"`
}

// TestResult carries a measured value. Value is a pointer so a recorded zero
// is distinguishable from a missing measurement.
type TestResult struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
}

// QualityTest is a laboratory observation about a prior record. A failed test
// is still a valid, recorded observation.
type QualityTest struct {
	ID        string          `json:"id"`
	TestType  string          `json:"testType"`
	Subject   Reference       `json:"subject"`
	Performer Performer       `json:"performer"`
	Result    TestResult      `json:"result"`
	Issued    string          `json:"issued"`
	Meta      *BlockchainMeta `json:"blockchainMeta,omitempty"`
}

// ConsumerStats tracks consumer QR scans; the only mutable part of a
// provenance bundle
type ConsumerStats struct {
	ScanCount int64  `json:"scanCount"`
	FirstScan string `json:"firstScan,omitempty"`
	LastScan  string `json:"lastScan,omitempty"`
}

// Provenance links a finished product batch to all of its upstream records
// and is addressable by QR code
type Provenance struct {
	ID            string          `json:"id"`
	BotanicalName string          `json:"botanicalName"`
	BatchNumber   string          `json:"batchNumber"`
	Recorded      string          `json:"recorded"`
	Events        []Reference     `json:"events"`
	QRCode        string          `json:"qrCode,omitempty"`
	Consumer      *ConsumerStats  `json:"consumer,omitempty"`
	Meta          *BlockchainMeta `json:"blockchainMeta,omitempty"`
}

// ProvenanceReceipt is returned to the submitter of CreateProvenance
type ProvenanceReceipt struct {
	ProvenanceID string `json:"provenanceId"`
	QRCode       string `json:"qrCode"`
}

// HistoryEntry is one committed value in a key's change log
type HistoryEntry struct {
	TxID      string          `json:"txId"`
	Timestamp string          `json:"timestamp"`
	IsDelete  bool            `json:"isDelete"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// Measurement is one laboratory reading submitted for gate evaluation
type Measurement struct {
	Value float64 `json:"value"`
}

// GateResult is the pass/fail outcome for a single parameter
type GateResult struct {
	Value  float64 `json:"value"`
	Passed bool    `json:"passed"`
	Reason string  `json:"reason,omitempty"`
}

// GateReport aggregates gate results; OverallPassed is the conjunction of
// every evaluated parameter
type GateReport struct {
	OverallPassed bool                  `json:"overallPassed"`
	Parameters    map[string]GateResult `json:"parameters"`
}
