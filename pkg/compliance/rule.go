// Package compliance checks and corrects endpoint settings that must hold
// a required value.
package compliance

import (
	"strings"

	"github.com/newtron-network/epaudit/pkg/record"
)

// Rule describes one required setting: the record field it is read from,
// the configuration path used to re-read it, the required value prefix and
// the document written to correct it.
type Rule struct {
	Name       string
	Field      string
	XPath      string
	Prefix     string
	Document   string
	ChangeNote string
}

// MTU requires the network MTU to be 1280.
var MTU = Rule{
	Name:       "MTU",
	Field:      record.SystemMTU,
	XPath:      "./Network/MTU",
	Prefix:     "1280",
	Document:   `<Configuration><Network><MTU>1280</MTU></Network></Configuration>`,
	ChangeNote: "MTU changed to 1280",
}

// SNMP requires the SNMP agent to be off.
var SNMP = Rule{
	Name:       "SNMP",
	Field:      record.SNMPStatus,
	XPath:      "./NetworkServices/SNMP/Mode",
	Prefix:     "Off",
	Document:   `<Configuration><NetworkServices><SNMP><Mode>Off</Mode></SNMP></NetworkServices></Configuration>`,
	ChangeNote: "SNMP Disabled",
}

// DefaultRules returns the rules applied on every run, in order.
func DefaultRules() []Rule {
	return []Rule{MTU, SNMP}
}

// Compliant reports whether value satisfies the rule. The match is on the
// prefix, so "1280 (indirect default)" satisfies MTU.
func (r Rule) Compliant(value string) bool {
	return strings.HasPrefix(value, r.Prefix)
}
