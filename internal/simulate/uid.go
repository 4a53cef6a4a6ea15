package simulate

import (
	"math/big"

	"github.com/google/uuid"
)

// NewUID returns a DICOM UID in the 2.25 form derived from a random UUID
func NewUID() string {
	id := uuid.New()
	return "2.25." + new(big.Int).SetBytes(id[:]).String()
}
