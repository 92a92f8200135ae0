/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincode

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Primary records are stored under their bare id so that reference fields
// resolve with a single GetState. Zones and secondary indexes carry a prefix;
// range scans use [prefix, prefix+"~") since all key material sorts below '~'.
const (
	zoneKeyPrefix  = "ZONE_"
	indexKeyPrefix = "IDX_"
	qrCodePrefix   = "QR-"
	rangeEnd       = "~"
)

func zoneKey(id string) string {
	return zoneKeyPrefix + id
}

// compositeKey builds a deterministic secondary index key from stable record
// fields. The record id is the final segment, so two records sharing the
// other segments still get distinct index entries.
func compositeKey(recordType string, parts ...string) string {
	return indexKeyPrefix + recordType + "~" + strings.Join(parts, "~")
}

// qrCodeForTx derives the QR identifier for a provenance bundle from the
// ordered transaction id, so every replica computes the same code without a
// local randomness source.
func qrCodeForTx(txID, provenanceID string) string {
	sum := sha256.Sum256([]byte(txID + "|" + provenanceID))
	return qrCodePrefix + hex.EncodeToString(sum[:])[:32]
}

// recordDigest hashes a stored record's bytes for predecessor linking.
func recordDigest(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}
