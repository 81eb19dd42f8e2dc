package control

import (
	"fmt"

	"github.com/hearthkeep/hub/internal/hubcore/errs"
)

func errOutOfRange(param string, lo, hi float64) *errs.HubError {
	return errs.BadInput(param, fmt.Sprintf("must be between %g and %g", lo, hi))
}

func errNoDeclaredService(key string) *errs.HubError {
	return errs.BadInput(key, "payload declares is_controllable but omits "+key)
}

func errUnsupportedNumeric(domain string) *errs.HubError {
	return errs.BadInput("control_value", "domain "+domain+" does not declare a numeric control parameter")
}
