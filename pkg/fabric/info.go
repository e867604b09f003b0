package fabric

import (
	"errors"
	"fmt"
)

// FabricInfo errors.
var (
	// ErrInvalidLabel is returned when the label exceeds max length.
	ErrInvalidLabel = errors.New("fabric: label exceeds maximum length")
)

// FabricInfo stores the runtime representation of a fabric membership
// entry. The session manager consumes this through Table as an external
// collaborator: it reads membership and stamps a FabricIndex onto sessions,
// but never constructs or validates credentials itself — certificate
// issuance and validation live entirely in the commissioning stack, which is
// out of scope here.
type FabricInfo struct {
	// FabricIndex is the local 8-bit index for this fabric (1-254).
	FabricIndex FabricIndex

	// FabricID is the 64-bit fabric identifier.
	FabricID FabricID

	// NodeID is this node's 64-bit operational node identifier on the fabric.
	NodeID NodeID

	// VendorID is the admin vendor ID associated with the fabric.
	VendorID VendorID

	// Label is a user-assigned label for this fabric (max 32 UTF-8 bytes).
	Label string
}

// NewFabricInfo creates a FabricInfo entry for an already-commissioned fabric.
func NewFabricInfo(index FabricIndex, fabricID FabricID, nodeID NodeID, vendorID VendorID) (*FabricInfo, error) {
	if !index.IsValid() {
		return nil, fmt.Errorf("fabric: invalid fabric index: %d", index)
	}
	if !fabricID.IsValid() {
		return nil, fmt.Errorf("fabric: invalid fabric id")
	}
	return &FabricInfo{
		FabricIndex: index,
		FabricID:    fabricID,
		NodeID:      nodeID,
		VendorID:    vendorID,
	}, nil
}

// SetLabel sets the fabric label. Returns error if label exceeds max length.
func (f *FabricInfo) SetLabel(label string) error {
	if len(label) > MaxLabelSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInvalidLabel, len(label), MaxLabelSize)
	}
	f.Label = label
	return nil
}

// String returns a human-readable representation of the fabric info.
func (f *FabricInfo) String() string {
	return fmt.Sprintf("Fabric{Index=%d, FabricID=0x%016X, NodeID=0x%016X, Vendor=0x%04X, Label=%q}",
		f.FabricIndex, uint64(f.FabricID), uint64(f.NodeID), uint16(f.VendorID), f.Label)
}

// Clone returns a copy of the FabricInfo.
func (f *FabricInfo) Clone() *FabricInfo {
	clone := *f
	return &clone
}
