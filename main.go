/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/rs/zerolog"

	"herbtrace-chaincode/chaincode"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("chaincode", "herbtrace").Logger()

	contract := chaincode.NewHerbContract(chaincode.DefaultValidationConfig(), log)
	cc, err := contractapi.NewChaincode(contract)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating chaincode")
	}

	if err := cc.Start(); err != nil {
		log.Fatal().Err(err).Msg("error starting chaincode")
	}
}
