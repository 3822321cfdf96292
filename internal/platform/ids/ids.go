// Package ids issues timestamp-derived identifiers for payslip line items.
package ids

import (
	"github.com/bwmarrin/snowflake"
)

const ItemPrefix = "item-"

type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Generator{node: node}, nil
}

// ItemID returns a unique, time-ordered identifier such as "item-1541815603606036480".
func (g *Generator) ItemID() string {
	return ItemPrefix + g.node.Generate().String()
}
