// Package signer produces the operator's attestation over a task response.
package signer

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trigg3rX/irs-avs/pkg/cryptography"
	"github.com/trigg3rX/irs-avs/pkg/types"
)

// TaskMessageHash is keccak256(abi.encodePacked(uint32 taskCreatedBlock,
// uint8 taskType, bytes payload)).
func TaskMessageHash(taskCreatedBlock uint32, taskType uint8, payload []byte) common.Hash {
	packed := make([]byte, 5, 5+len(payload))
	binary.BigEndian.PutUint32(packed[:4], taskCreatedBlock)
	packed[4] = taskType
	packed = append(packed, payload...)
	return crypto.Keccak256Hash(packed)
}

// SignedResponse is the task tuple as it will be submitted, plus the
// operator's signature over it.
type SignedResponse struct {
	Task        types.Task
	MessageHash common.Hash
	Signature   []byte
}

// TaskSigner signs task responses with the operator key.
type TaskSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewTaskSigner(key *ecdsa.PrivateKey) (*TaskSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("operator key is not set")
	}
	return &TaskSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (s *TaskSigner) Address() common.Address {
	return s.address
}

// Sign hashes the response tuple and signs it as an EIP-191 personal message.
// The original task is not modified; payload replaces its payload in the
// returned tuple.
func (s *TaskSigner) Sign(task types.Task, payload []byte) (*SignedResponse, error) {
	hash := TaskMessageHash(task.TaskCreatedBlock, task.TaskType, payload)
	sig, err := cryptography.SignMessage(hash.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign task response: %w", err)
	}
	return &SignedResponse{
		Task: types.Task{
			TaskCreatedBlock: task.TaskCreatedBlock,
			TaskType:         task.TaskType,
			Payload:          payload,
		},
		MessageHash: hash,
		Signature:   sig,
	}, nil
}

// Verify checks that resp was signed by signer.
func Verify(resp *SignedResponse, signer common.Address) (bool, error) {
	hash := TaskMessageHash(resp.Task.TaskCreatedBlock, resp.Task.TaskType, resp.Task.Payload)
	if hash != resp.MessageHash {
		return false, nil
	}
	return cryptography.VerifySignature(hash.Bytes(), resp.Signature, signer)
}
