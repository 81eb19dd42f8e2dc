// Package eventhook compiles the event-definition hooks the Sync Engine
// (C5) registers for alarmable binary-sensor device classes when an
// integration's "add alarm events" flag is set. A hook is a small
// JS condition snippet -- not a rules engine, just a per-device-class
// predicate over the reported state -- evaluated with goja the same way
// the teacher's TEE script engine runs user scripts, minus the sandboxing
// that a real downstream event pipeline would add.
package eventhook

import (
	"fmt"

	"github.com/dop251/goja"
)

// conditionByDeviceClass holds the canonical trigger predicate for each
// alarmable binary-sensor device class: it fires on "on" for motion and
// opening, on "off" for connectivity, and on a value of 20 or less for
// battery.
var conditionByDeviceClass = map[string]string{
	"motion":       "state.value === 'on'",
	"connectivity": "state.value === 'off'",
	"opening":      "state.value === 'on'",
	"battery":      "Number(state.value) <= 20",
}

// ConditionFor returns the JS condition snippet registered for
// deviceClass, and whether one is defined.
func ConditionFor(deviceClass string) (string, bool) {
	cond, ok := conditionByDeviceClass[deviceClass]
	return cond, ok
}

// Validate compiles condition with goja, rejecting anything that isn't a
// well-formed JS expression before it's persisted as a hook attribute.
func Validate(condition string) error {
	if _, err := goja.Compile("", "("+condition+")", true); err != nil {
		return fmt.Errorf("invalid event hook condition: %w", err)
	}
	return nil
}

// Evaluate runs condition against the reported state value, the same
// boolean-predicate shape a downstream alarm pipeline would use to decide
// whether this hook fires. attrs is exposed to the script as the global
// `state` object.
func Evaluate(condition string, attrs map[string]any) (bool, error) {
	vm := goja.New()
	stateObj := vm.NewObject()
	for k, v := range attrs {
		if err := stateObj.Set(k, v); err != nil {
			return false, fmt.Errorf("set state.%s: %w", k, err)
		}
	}
	if err := vm.Set("state", stateObj); err != nil {
		return false, fmt.Errorf("set state: %w", err)
	}

	result, err := vm.RunString("(" + condition + ")")
	if err != nil {
		return false, fmt.Errorf("evaluate event hook condition: %w", err)
	}
	return result.ToBoolean(), nil
}
