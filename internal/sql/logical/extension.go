package logical

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orcasql/orcasql/internal/record"
)

// ErrDecode covers malformed extension payloads, unknown node kinds, and
// dynamic type mismatches. Always fatal to the plan being decoded.
var ErrDecode = errors.New("logical: decode error")

// ExtensionSchema is the fixed schema shared by all DDL extension nodes.
// It is not node specific.
var ExtensionSchema = record.Schema{
	Cols: []record.Column{{Name: "operation", Type: record.ColText}},
}

// ExtensionNode is a self-describing, serializable leaf plan node
// representing a non-data-flow operation inside the plan tree. This lets
// DDL plans be displayed and shipped across process boundaries the same way
// query plans are.
type ExtensionNode interface {
	Plan
	// ExtensionName is the stable identifier used for serialization
	// dispatch.
	ExtensionName() string
	// Inputs is always empty for DDL nodes.
	Inputs() []Plan
	// OutputSchema is the fixed shared operation schema.
	OutputSchema() record.Schema
	// Expressions is empty; DDL carries no scalar expressions.
	Expressions() []string
	// FromTemplate rebuilds an equivalent node.
	FromTemplate() ExtensionNode
}

// envelope is the wire form of an extension node: a kind identifier plus a
// kind-specific payload.
type envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// Encode serializes the node into a self-describing message tagged with the
// node's kind.
func Encode(n ExtensionNode) ([]byte, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("logical: encode %s: %w", n.ExtensionName(), err)
	}
	buf, err := json.Marshal(envelope{Name: n.ExtensionName(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("logical: encode %s: %w", n.ExtensionName(), err)
	}
	return buf, nil
}

func decodePayload[T any](payload json.RawMessage) (ExtensionNode, error) {
	n := new(T)
	if err := json.Unmarshal(payload, n); err != nil {
		return nil, fmt.Errorf("%w: bad payload: %v", ErrDecode, err)
	}
	node, ok := any(n).(ExtensionNode)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an extension node", ErrDecode, n)
	}
	return node, nil
}

// extensionRegistry is the dispatch table keyed on the kind identifier.
var extensionRegistry = map[string]func(json.RawMessage) (ExtensionNode, error){
	ExtensionCreateTable:         decodePayload[CreateTable],
	ExtensionCreateExternalTable: decodePayload[CreateExternalTable],
	ExtensionCreateTableAs:       decodePayload[CreateTableAs],
	ExtensionCreateSchema:        decodePayload[CreateSchema],
	ExtensionDropTables:          decodePayload[DropTables],
	ExtensionDropSchemas:         decodePayload[DropSchemas],
	ExtensionAlterTable:          decodePayload[AlterTable],
	ExtensionCreateCredentials:   decodePayload[CreateCredentials],
	ExtensionDropCredentials:     decodePayload[DropCredentials],
}

// Decode reconstructs an extension node from its wire form.
func Decode(buf []byte) (ExtensionNode, error) {
	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("%w: bad envelope: %v", ErrDecode, err)
	}
	decode, ok := extensionRegistry[env.Name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown extension node kind %q", ErrDecode, env.Name)
	}
	return decode(env.Payload)
}

// DecodeAs recovers a concretely-typed node from the generic extension
// wrapper. Fails if the dynamic type does not match.
func DecodeAs[T ExtensionNode](n ExtensionNode) (T, error) {
	typed, ok := n.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: extension node is %T, not %T", ErrDecode, n, zero)
	}
	return typed, nil
}
