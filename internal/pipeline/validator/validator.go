package validator

import (
	"github.com/elskow/buildevents/internal/pipeline/types"
)

type Validator interface {
	ValidatePlan(plan *types.Plan) error
}
