// Package idgen hands out snowflake ids for entities and requests.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

type Generator struct {
	node *snowflake.Node
}

// New creates a generator for the given machine id (0..1023).
func New(machineID int64) (*Generator, error) {
	node, err := snowflake.NewNode(machineID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", machineID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}

// NextString returns a base58 id, short enough for headers.
func (g *Generator) NextString() string {
	return g.node.Generate().Base58()
}
