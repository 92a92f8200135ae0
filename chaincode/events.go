/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// Chaincode events consumed by off-ledger dashboards. Payloads are small and
// denormalized; the full record lives in state.
const (
	eventCollectionRecorded = "CollectionEventRecorded"
	eventProcessingRecorded = "ProcessingStepRecorded"
	eventQualityRecorded    = "QualityTestRecorded"
	eventProvenanceCreated  = "ProvenanceCreated"
)

type collectionRecordedPayload struct {
	ID            string `json:"id"`
	BotanicalName string `json:"botanicalName"`
	ZoneID        string `json:"zoneId"`
	Performer     string `json:"performer"`
}

type processingRecordedPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	InputRef  string `json:"inputRef"`
	Performer string `json:"performer"`
}

type qualityRecordedPayload struct {
	ID         string `json:"id"`
	TestType   string `json:"testType"`
	SubjectRef string `json:"subjectRef"`
	Performer  string `json:"performer"`
}

type provenanceCreatedPayload struct {
	ID            string `json:"id"`
	QRCode        string `json:"qrCode"`
	BotanicalName string `json:"botanicalName"`
	BatchNumber   string `json:"batchNumber"`
}

func setEvent(stub shim.ChaincodeStubInterface, name string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %v", name, err)
	}
	return stub.SetEvent(name, b)
}
