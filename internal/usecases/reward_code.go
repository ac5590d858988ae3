package usecases

import (
	"strings"

	"github.com/google/uuid"
)

const rewardCodeLength = 12

// CodeGenerator produces reward codes
type CodeGenerator func() string

// NewCodeGenerator returns prefix followed by random uppercase hex taken from a v4 UUID
func NewCodeGenerator(prefix string) CodeGenerator {
	return func() string {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		return prefix + strings.ToUpper(raw[:rewardCodeLength])
	}
}
