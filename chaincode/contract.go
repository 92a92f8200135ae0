/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/rs/zerolog"
)

// HerbContract records herb supply-chain events on the ledger and validates
// them against geo-fencing and seasonal rules. Every operation either
// validates fully and commits all of its writes, or rejects and writes
// nothing. No wall clock and no local randomness feed validation or state;
// timestamps and the QR code derive from the ordered transaction.
type HerbContract struct {
	contractapi.Contract
	cfg *ValidationConfig
	log zerolog.Logger
}

// NewHerbContract builds the contract. A nil cfg falls back to the default
// rule tables.
func NewHerbContract(cfg *ValidationConfig, log zerolog.Logger) *HerbContract {
	if cfg == nil {
		cfg = DefaultValidationConfig()
	}
	return &HerbContract{cfg: cfg, log: log}
}

// InitLedger seeds the approved harvesting zones. Run once at ledger
// initialization; it fails if the registry is already seeded, which is how
// zone immutability is enforced.
// zonesJSON is a string because chaincode args are passed as strings.
func (c *HerbContract) InitLedger(ctx contractapi.TransactionContextInterface, zonesJSON string) error {
	stub := ctx.GetStub()

	var zones []Zone
	if err := json.Unmarshal([]byte(zonesJSON), &zones); err != nil {
		return fmt.Errorf("invalid zones payload: %v", err)
	}

	existing, err := stub.GetStateByRange(zoneKeyPrefix, zoneKeyPrefix+rangeEnd)
	if err != nil {
		return fmt.Errorf("failed to scan zone registry: %v", err)
	}
	seeded := existing.HasNext()
	existing.Close()
	if seeded {
		return fmt.Errorf("zone registry already seeded")
	}

	var merr *multierror.Error
	for i, z := range zones {
		if z.ID == "" {
			merr = multierror.Append(merr, fmt.Errorf("zone %d: id is required", i))
		}
		if z.RadiusMeters <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("zone %d: radiusMeters must be positive", i))
		}
		if len(z.ApprovedSpecies) == 0 {
			merr = multierror.Append(merr, fmt.Errorf("zone %d: approvedSpecies must not be empty", i))
		}
	}
	if merr.ErrorOrNil() != nil {
		return newValidationError(merr)
	}

	for _, z := range zones {
		b, err := json.Marshal(z)
		if err != nil {
			return fmt.Errorf("failed to marshal zone %s: %v", z.ID, err)
		}
		if err := stub.PutState(zoneKey(z.ID), b); err != nil {
			return fmt.Errorf("failed to store zone %s: %v", z.ID, err)
		}
	}

	c.log.Info().Int("zones", len(zones)).Str("txId", stub.GetTxID()).Msg("zone registry seeded")
	return nil
}

// ListZones returns every approved harvesting zone in registry order.
func (c *HerbContract) ListZones(ctx contractapi.TransactionContextInterface) ([]Zone, error) {
	return listZones(ctx.GetStub())
}

// CreateCollectionEvent validates and records a harvest event. Field checks,
// the geo-fence and the species season window are all evaluated before any
// write; failures are reported together.
func (c *HerbContract) CreateCollectionEvent(ctx contractapi.TransactionContextInterface, evtJSON string) (string, error) {
	stub := ctx.GetStub()

	var evt CollectionEvent
	if err := json.Unmarshal([]byte(evtJSON), &evt); err != nil {
		return "", fmt.Errorf("invalid collection event payload: %v", err)
	}

	var merr *multierror.Error
	if evt.ID == "" {
		merr = multierror.Append(merr, errors.New("id is required"))
	}
	if evt.BotanicalName == "" {
		merr = multierror.Append(merr, errors.New("botanicalName is required"))
	}
	if evt.Location == nil {
		merr = multierror.Append(merr, errors.New("location is required"))
	}
	if evt.Quantity.Value <= 0 {
		merr = multierror.Append(merr, errors.New("quantity.value must be positive"))
	}
	if evt.Performer.Identifier == "" {
		merr = multierror.Append(merr, errors.New("performer.identifier is required"))
	}
	day, monthDay, dateErr := parseEventDate(evt.PerformedDateTime)
	if dateErr != nil {
		merr = multierror.Append(merr, dateErr)
	}
	if merr.ErrorOrNil() != nil {
		return "", newValidationError(merr)
	}

	if err := requireAbsent(stub, evt.ID, "collection event"); err != nil {
		return "", err
	}

	zones, err := listZones(stub)
	if err != nil {
		return "", err
	}
	geo := ValidateGeoFence(zones, *evt.Location, evt.BotanicalName)
	if !geo.Approved {
		merr = multierror.Append(merr, errors.New(geo.Reason))
	}
	if restricted, reason := c.cfg.ValidateSeason(evt.BotanicalName, monthDay); restricted {
		merr = multierror.Append(merr, errors.New(reason))
	}
	if merr.ErrorOrNil() != nil {
		return "", newValidationError(merr)
	}

	meta, err := txMeta(ctx)
	if err != nil {
		return "", err
	}
	evt.GeoFence = &geo
	evt.Meta = meta

	b, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("failed to marshal collection event: %v", err)
	}
	if err := stub.PutState(evt.ID, b); err != nil {
		return "", fmt.Errorf("failed to store collection event: %v", err)
	}
	idx := compositeKey("collection", evt.BotanicalName, evt.Performer.Identifier, day, evt.ID)
	if err := stub.PutState(idx, []byte(evt.ID)); err != nil {
		return "", fmt.Errorf("failed to store collection index: %v", err)
	}
	if err := setEvent(stub, eventCollectionRecorded, collectionRecordedPayload{
		ID:            evt.ID,
		BotanicalName: evt.BotanicalName,
		ZoneID:        geo.ZoneID,
		Performer:     evt.Performer.Identifier,
	}); err != nil {
		return "", err
	}

	c.log.Info().Str("id", evt.ID).Str("zone", geo.ZoneID).Str("txId", meta.TxID).Msg("collection event recorded")
	return evt.ID, nil
}

// CreateProcessingStep validates and records a downstream processing step.
// The input reference must resolve; the referenced record's stored bytes are
// digested into the step's previousHash before anything is written.
func (c *HerbContract) CreateProcessingStep(ctx contractapi.TransactionContextInterface, stepJSON string) (string, error) {
	stub := ctx.GetStub()

	var step ProcessingStep
	if err := json.Unmarshal([]byte(stepJSON), &step); err != nil {
		return "", fmt.Errorf("invalid processing step payload: %v", err)
	}

	var merr *multierror.Error
	if step.ID == "" {
		merr = multierror.Append(merr, errors.New("id is required"))
	}
	if step.Input.Reference == "" {
		merr = multierror.Append(merr, errors.New("input.reference is required"))
	}
	if step.Performer.Identifier == "" {
		merr = multierror.Append(merr, errors.New("performer.identifier is required"))
	}
	if step.Input.Quantity.Value <= 0 {
		merr = multierror.Append(merr, errors.New("input.quantity.value must be positive"))
	}
	if merr.ErrorOrNil() != nil {
		return "", newValidationError(merr)
	}

	if err := requireAbsent(stub, step.ID, "processing step"); err != nil {
		return "", err
	}
	prior, err := resolveReference(stub, step.Input.Reference)
	if err != nil {
		return "", err
	}

	meta, err := txMeta(ctx)
	if err != nil {
		return "", err
	}
	meta.PreviousHash = recordDigest(prior)
	step.Meta = meta

	b, err := json.Marshal(step)
	if err != nil {
		return "", fmt.Errorf("failed to marshal processing step: %v", err)
	}
	if err := stub.PutState(step.ID, b); err != nil {
		return "", fmt.Errorf("failed to store processing step: %v", err)
	}
	idx := compositeKey("processing", step.Type, step.Performer.Identifier, step.Period.Start, step.ID)
	if err := stub.PutState(idx, []byte(step.ID)); err != nil {
		return "", fmt.Errorf("failed to store processing index: %v", err)
	}
	if err := setEvent(stub, eventProcessingRecorded, processingRecordedPayload{
		ID:        step.ID,
		Type:      step.Type,
		InputRef:  step.Input.Reference,
		Performer: step.Performer.Identifier,
	}); err != nil {
		return "", err
	}

	c.log.Info().Str("id", step.ID).Str("inputRef", step.Input.Reference).Str("txId", meta.TxID).Msg("processing step recorded")
	return step.ID, nil
}

// CreateQualityTest validates and records a laboratory observation about a
// prior record. result.value must be present; zero is a legitimate reading.
func (c *HerbContract) CreateQualityTest(ctx contractapi.TransactionContextInterface, testJSON string) (string, error) {
	stub := ctx.GetStub()

	var test QualityTest
	if err := json.Unmarshal([]byte(testJSON), &test); err != nil {
		return "", fmt.Errorf("invalid quality test payload: %v", err)
	}

	var merr *multierror.Error
	if test.ID == "" {
		merr = multierror.Append(merr, errors.New("id is required"))
	}
	if test.Subject.Reference == "" {
		merr = multierror.Append(merr, errors.New("subject.reference is required"))
	}
	if test.Performer.Identifier == "" {
		merr = multierror.Append(merr, errors.New("performer.identifier is required"))
	}
	if test.Result.Value == nil {
		merr = multierror.Append(merr, errors.New("result.value is required"))
	}
	if merr.ErrorOrNil() != nil {
		return "", newValidationError(merr)
	}

	if err := requireAbsent(stub, test.ID, "quality test"); err != nil {
		return "", err
	}
	if _, err := resolveReference(stub, test.Subject.Reference); err != nil {
		return "", err
	}

	meta, err := txMeta(ctx)
	if err != nil {
		return "", err
	}
	test.Meta = meta

	b, err := json.Marshal(test)
	if err != nil {
		return "", fmt.Errorf("failed to marshal quality test: %v", err)
	}
	if err := stub.PutState(test.ID, b); err != nil {
		return "", fmt.Errorf("failed to store quality test: %v", err)
	}
	idx := compositeKey("quality", test.TestType, test.Performer.Identifier, test.Issued, test.ID)
	if err := stub.PutState(idx, []byte(test.ID)); err != nil {
		return "", fmt.Errorf("failed to store quality index: %v", err)
	}
	if err := setEvent(stub, eventQualityRecorded, qualityRecordedPayload{
		ID:         test.ID,
		TestType:   test.TestType,
		SubjectRef: test.Subject.Reference,
		Performer:  test.Performer.Identifier,
	}); err != nil {
		return "", err
	}

	c.log.Info().Str("id", test.ID).Str("subjectRef", test.Subject.Reference).Str("txId", meta.TxID).Msg("quality test recorded")
	return test.ID, nil
}

// EvaluateQualityGates checks submitted lab readings against the configured
// gates. Read-only; a failing report does not block recording the test.
func (c *HerbContract) EvaluateQualityGates(ctx contractapi.TransactionContextInterface, resultsJSON string) (*GateReport, error) {
	var results map[string]Measurement
	if err := json.Unmarshal([]byte(resultsJSON), &results); err != nil {
		return nil, fmt.Errorf("invalid results payload: %v", err)
	}
	report := c.cfg.EvaluateQualityGates(results)
	return &report, nil
}

// CreateProvenance aggregates prior records into a retrievable bundle and
// assigns its QR identifier. Every event reference must resolve before
// anything is written.
func (c *HerbContract) CreateProvenance(ctx contractapi.TransactionContextInterface, provJSON string) (*ProvenanceReceipt, error) {
	stub := ctx.GetStub()

	var prov Provenance
	if err := json.Unmarshal([]byte(provJSON), &prov); err != nil {
		return nil, fmt.Errorf("invalid provenance payload: %v", err)
	}

	var merr *multierror.Error
	if prov.ID == "" {
		merr = multierror.Append(merr, errors.New("id is required"))
	}
	if len(prov.Events) == 0 {
		merr = multierror.Append(merr, errors.New("events must not be empty"))
	}
	if merr.ErrorOrNil() != nil {
		return nil, newValidationError(merr)
	}

	if err := requireAbsent(stub, prov.ID, "provenance"); err != nil {
		return nil, err
	}
	for _, e := range prov.Events {
		if _, err := resolveReference(stub, e.Reference); err != nil {
			return nil, err
		}
	}

	meta, err := txMeta(ctx)
	if err != nil {
		return nil, err
	}
	prov.QRCode = qrCodeForTx(meta.TxID, prov.ID)
	prov.Consumer = nil // scan stats are system-managed
	prov.Meta = meta

	b, err := json.Marshal(prov)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provenance: %v", err)
	}
	if err := stub.PutState(prov.ID, b); err != nil {
		return nil, fmt.Errorf("failed to store provenance: %v", err)
	}
	if err := stub.PutState(prov.QRCode, []byte(prov.ID)); err != nil {
		return nil, fmt.Errorf("failed to store qr index: %v", err)
	}
	idx := compositeKey("provenance", prov.BotanicalName, prov.BatchNumber, prov.Recorded, prov.ID)
	if err := stub.PutState(idx, []byte(prov.ID)); err != nil {
		return nil, fmt.Errorf("failed to store provenance index: %v", err)
	}
	if err := setEvent(stub, eventProvenanceCreated, provenanceCreatedPayload{
		ID:            prov.ID,
		QRCode:        prov.QRCode,
		BotanicalName: prov.BotanicalName,
		BatchNumber:   prov.BatchNumber,
	}); err != nil {
		return nil, err
	}

	c.log.Info().Str("id", prov.ID).Str("qrCode", prov.QRCode).Str("txId", meta.TxID).Msg("provenance created")
	return &ProvenanceReceipt{ProvenanceID: prov.ID, QRCode: prov.QRCode}, nil
}

// QueryProvenanceByQR resolves a consumer QR scan to its provenance bundle
// and bumps the bundle's scan statistics in the same transaction. Because it
// writes, it must be submitted through the ordered path like every create;
// an unordered evaluate-only query would let concurrent scans lose counts.
func (c *HerbContract) QueryProvenanceByQR(ctx contractapi.TransactionContextInterface, qrCode string) (*Provenance, error) {
	stub := ctx.GetStub()

	idBytes, err := stub.GetState(qrCode)
	if err != nil {
		return nil, fmt.Errorf("failed to read qr code %s: %v", qrCode, err)
	}
	if idBytes == nil {
		return nil, fmt.Errorf("%w: qr code %s", ErrNotFound, qrCode)
	}
	provID := string(idBytes)

	b, err := stub.GetState(provID)
	if err != nil {
		return nil, fmt.Errorf("failed to read provenance %s: %v", provID, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: qr code %s points at missing provenance %s", ErrIntegrity, qrCode, provID)
	}
	var prov Provenance
	if err := json.Unmarshal(b, &prov); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provenance %s: %v", provID, err)
	}

	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction timestamp: %v", err)
	}
	scannedAt := ts.AsTime().UTC().Format(time.RFC3339)

	if prov.Consumer == nil {
		prov.Consumer = &ConsumerStats{}
	}
	prov.Consumer.ScanCount++
	if prov.Consumer.FirstScan == "" {
		prov.Consumer.FirstScan = scannedAt
	}
	prov.Consumer.LastScan = scannedAt

	updated, err := json.Marshal(prov)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provenance %s: %v", provID, err)
	}
	if err := stub.PutState(provID, updated); err != nil {
		return nil, fmt.Errorf("failed to store provenance %s: %v", provID, err)
	}

	c.log.Info().Str("id", provID).Int64("scanCount", prov.Consumer.ScanCount).Str("txId", stub.GetTxID()).Msg("provenance scanned")
	return &prov, nil
}

// QueryAllRecords returns every stored value whose key starts with prefix,
// as a JSON array in key order.
func (c *HerbContract) QueryAllRecords(ctx contractapi.TransactionContextInterface, prefix string) (string, error) {
	iter, err := ctx.GetStub().GetStateByRange(prefix, prefix+rangeEnd)
	if err != nil {
		return "", fmt.Errorf("failed to scan records by prefix %s: %v", prefix, err)
	}
	defer iter.Close()

	records := []json.RawMessage{}
	for iter.HasNext() {
		r, err := iter.Next()
		if err != nil {
			return "", fmt.Errorf("failed during results iteration: %v", err)
		}
		records = append(records, json.RawMessage(r.Value))
	}

	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %v", err)
	}
	return string(b), nil
}

// GetRecordHistory returns the full change log of a key as a JSON array,
// oldest entry first. Pure read.
func (c *HerbContract) GetRecordHistory(ctx contractapi.TransactionContextInterface, key string) (string, error) {
	iter, err := ctx.GetStub().GetHistoryForKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to get history for %s: %v", key, err)
	}
	defer iter.Close()

	entries := []HistoryEntry{}
	for iter.HasNext() {
		mod, err := iter.Next()
		if err != nil {
			return "", fmt.Errorf("failed during history iteration: %v", err)
		}
		entry := HistoryEntry{
			TxID:     mod.TxId,
			IsDelete: mod.IsDelete,
			Value:    json.RawMessage(mod.Value),
		}
		if mod.Timestamp != nil {
			entry.Timestamp = mod.Timestamp.AsTime().UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history: %v", err)
	}
	return string(b), nil
}

// ------------------ helpers ------------------

func listZones(stub shim.ChaincodeStubInterface) ([]Zone, error) {
	iter, err := stub.GetStateByRange(zoneKeyPrefix, zoneKeyPrefix+rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to scan zone registry: %v", err)
	}
	defer iter.Close()

	var zones []Zone
	for iter.HasNext() {
		r, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("failed during zone iteration: %v", err)
		}
		var z Zone
		if err := json.Unmarshal(r.Value, &z); err != nil {
			return nil, fmt.Errorf("failed to unmarshal zone %s: %v", r.Key, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// resolveReference loads the record a reference field points at, or fails
// with ErrReferenceNotFound.
func resolveReference(stub shim.ChaincodeStubInterface, ref string) ([]byte, error) {
	b, err := stub.GetState(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference %s: %v", ref, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, ref)
	}
	return b, nil
}

// requireAbsent rejects re-creation of an existing record; records are
// append-only after creation.
func requireAbsent(stub shim.ChaincodeStubInterface, key, kind string) error {
	b, err := stub.GetState(key)
	if err != nil {
		return fmt.Errorf("failed to read %s %s: %v", kind, key, err)
	}
	if b != nil {
		return fmt.Errorf("%s %s already exists", kind, key)
	}
	return nil
}

// txMeta builds record metadata from the ordered transaction. The submitter
// id is best-effort; identities without a resolvable id are allowed.
func txMeta(ctx contractapi.TransactionContextInterface) (*BlockchainMeta, error) {
	stub := ctx.GetStub()
	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction timestamp: %v", err)
	}
	meta := &BlockchainMeta{
		TxID:      stub.GetTxID(),
		Timestamp: ts.AsTime().UTC().Format(time.RFC3339),
	}
	if id, err := ctx.GetClientIdentity().GetID(); err == nil {
		meta.Submitter = id
	}
	return meta, nil
}

// parseEventDate accepts an RFC3339 timestamp or a plain ISO date and returns
// the "YYYY-MM-DD" day (for index keys) and the "MM-DD" part (for season
// checks).
func parseEventDate(value string) (string, string, error) {
	if value == "" {
		return "", "", errors.New("performedDateTime is required")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), t.Format("01-02"), nil
		}
	}
	return "", "", fmt.Errorf("performedDateTime %q is not an ISO date", value)
}
