package chaincode

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// mockStub implements the slice of the stub the engine uses: state map with
// ordered range scans, per-key history and captured chaincode events. The
// embedded interface panics on anything else, which is what we want.
type mockStub struct {
	shim.ChaincodeStubInterface
	state   map[string][]byte
	history map[string][]*queryresult.KeyModification
	events  map[string][]byte
	txID    string
	txTime  time.Time
}

func newMockStub() *mockStub {
	return &mockStub{
		state:   map[string][]byte{},
		history: map[string][]*queryresult.KeyModification{},
		events:  map[string][]byte{},
		txID:    "tx-1",
		txTime:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (m *mockStub) GetTxID() string { return m.txID }

func (m *mockStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(m.txTime), nil
}

func (m *mockStub) GetState(key string) ([]byte, error) {
	return m.state[key], nil
}

func (m *mockStub) PutState(key string, value []byte) error {
	cp := append([]byte(nil), value...)
	m.state[key] = cp
	m.history[key] = append(m.history[key], &queryresult.KeyModification{
		TxId:      m.txID,
		Value:     cp,
		Timestamp: timestamppb.New(m.txTime),
	})
	return nil
}

func (m *mockStub) SetEvent(name string, payload []byte) error {
	m.events[name] = payload
	return nil
}

func (m *mockStub) GetStateByRange(startKey, endKey string) (shim.StateQueryIteratorInterface, error) {
	keys := make([]string, 0, len(m.state))
	for k := range m.state {
		if k >= startKey && (endKey == "" || k < endKey) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	kvs := make([]*queryresult.KV, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, &queryresult.KV{Key: k, Value: m.state[k]})
	}
	return &mockKVIterator{kvs: kvs}, nil
}

func (m *mockStub) GetHistoryForKey(key string) (shim.HistoryQueryIteratorInterface, error) {
	return &mockHistoryIterator{mods: m.history[key]}, nil
}

// snapshot copies current state for before/after comparisons.
func (m *mockStub) snapshot() map[string]string {
	out := make(map[string]string, len(m.state))
	for k, v := range m.state {
		out[k] = string(v)
	}
	return out
}

type mockKVIterator struct {
	kvs []*queryresult.KV
	i   int
}

func (it *mockKVIterator) HasNext() bool { return it.i < len(it.kvs) }
func (it *mockKVIterator) Close() error  { return nil }
func (it *mockKVIterator) Next() (*queryresult.KV, error) {
	kv := it.kvs[it.i]
	it.i++
	return kv, nil
}

type mockHistoryIterator struct {
	mods []*queryresult.KeyModification
	i    int
}

func (it *mockHistoryIterator) HasNext() bool { return it.i < len(it.mods) }
func (it *mockHistoryIterator) Close() error  { return nil }
func (it *mockHistoryIterator) Next() (*queryresult.KeyModification, error) {
	mod := it.mods[it.i]
	it.i++
	return mod, nil
}

type mockIdentity struct {
	cid.ClientIdentity
	id string
}

func (m *mockIdentity) GetID() (string, error) { return m.id, nil }

type mockContext struct {
	contractapi.TransactionContextInterface
	stub     *mockStub
	identity *mockIdentity
}

func (c *mockContext) GetStub() shim.ChaincodeStubInterface { return c.stub }
func (c *mockContext) GetClientIdentity() cid.ClientIdentity { return c.identity }

func newTestContext() (*mockContext, *mockStub) {
	stub := newMockStub()
	return &mockContext{stub: stub, identity: &mockIdentity{id: "farmer-001"}}, stub
}

// testConfig restricts ashwagandha collection from October through April,
// wrapping the year boundary.
func testConfig() *ValidationConfig {
	return &ValidationConfig{
		SeasonWindows: map[string]SeasonWindow{
			"Withania somnifera": {Start: "10-01", End: "04-30"},
		},
		QualityGates: map[string]QualityGate{
			"moisture":         {Max: f64(12), Unit: "%"},
			"dna_authenticity": {Min: f64(95), Unit: "%"},
		},
	}
}

func newTestContract() *HerbContract {
	return NewHerbContract(testConfig(), zerolog.Nop())
}

func testZones() []Zone {
	return []Zone{
		{
			ID:              "ZONE-MH-01",
			Name:            "Aurangabad belt",
			Center:          GeoPoint{Lat: 19.75, Lng: 75.71},
			RadiusMeters:    50000,
			ApprovedSpecies: []string{"Withania somnifera", "Ocimum tenuiflorum"},
			Restrictions: ZoneRestrictions{
				Seasons:               []string{"winter"},
				MaxQuantityPerDay:     100,
				CertificationRequired: true,
			},
		},
		{
			ID:              "ZONE-KA-02",
			Name:            "Belgaum foothills",
			Center:          GeoPoint{Lat: 15.85, Lng: 74.5},
			RadiusMeters:    30000,
			ApprovedSpecies: []string{"Bacopa monnieri"},
		},
	}
}

func seedZones(t *testing.T, c *HerbContract, ctx *mockContext) {
	t.Helper()
	require.NoError(t, c.InitLedger(ctx, mustJSON(t, testZones())))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// validCollectionEvent is inside ZONE-MH-01 on a June date, outside the
// ashwagandha deny window.
func validCollectionEvent(id string) CollectionEvent {
	return CollectionEvent{
		ID:                id,
		BotanicalName:     "Withania somnifera",
		Location:          &GeoPoint{Lat: 19.75, Lng: 75.71},
		Quantity:          Quantity{Value: 25, Unit: "kg"},
		PerformedDateTime: "2024-06-15T08:30:00Z",
		Performer:         Performer{Identifier: "farmer-001"},
	}
}
