package warehouse

import "strings"

// Code identifies one of the four physical warehouses.
type Code string

const (
	MDP Code = "MDP"
	BA  Code = "BA"
	GP  Code = "GP"
	ROS Code = "ROS"
)

// Field enumerates the eight counter slots of a stock record. Every slot is
// addressed through this enumeration; free-form column names never reach SQL.
type Field int

const (
	FieldStockMDP Field = iota
	FieldStockBA
	FieldStockGP
	FieldStockROS
	FieldPendingMDP
	FieldPendingBA
	FieldPendingGP
	FieldPendingROS
)

var fieldColumns = [...]string{
	FieldStockMDP:   "stock_mdp",
	FieldStockBA:    "stock_ba",
	FieldStockGP:    "stock_gp",
	FieldStockROS:   "stock_ros",
	FieldPendingMDP: "pending_mdp",
	FieldPendingBA:  "pending_ba",
	FieldPendingGP:  "pending_gp",
	FieldPendingROS: "pending_ros",
}

var fieldWarehouse = [...]Code{
	FieldStockMDP:   MDP,
	FieldStockBA:    BA,
	FieldStockGP:    GP,
	FieldStockROS:   ROS,
	FieldPendingMDP: MDP,
	FieldPendingBA:  BA,
	FieldPendingGP:  GP,
	FieldPendingROS: ROS,
}

// Column returns the stock table column backing the field.
func (f Field) Column() string {
	if f < 0 || int(f) >= len(fieldColumns) {
		return ""
	}
	return fieldColumns[f]
}

// Warehouse returns the warehouse the field belongs to.
func (f Field) Warehouse() Code {
	if f < 0 || int(f) >= len(fieldWarehouse) {
		return ""
	}
	return fieldWarehouse[f]
}

// Pending reports whether the field is a pending counter.
func (f Field) Pending() bool {
	return f >= FieldPendingMDP && f <= FieldPendingROS
}

func (f Field) String() string {
	return f.Column()
}

// ResolveField maps a warehouse code and pending flag to the counter field.
// The code is matched case-insensitively against the fixed warehouse set;
// anything else reports false. A miss is user input, not a fault.
func ResolveField(code string, pending bool) (Field, bool) {
	var base Field
	switch Code(strings.ToUpper(strings.TrimSpace(code))) {
	case MDP:
		base = FieldStockMDP
	case BA:
		base = FieldStockBA
	case GP:
		base = FieldStockGP
	case ROS:
		base = FieldStockROS
	default:
		return 0, false
	}
	if pending {
		return base + FieldPendingMDP, true
	}
	return base, true
}

// Fields lists all eight counter slots in column order.
func Fields() []Field {
	return []Field{
		FieldStockMDP, FieldStockBA, FieldStockGP, FieldStockROS,
		FieldPendingMDP, FieldPendingBA, FieldPendingGP, FieldPendingROS,
	}
}
