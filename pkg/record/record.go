// Package record defines the Device Record describing one endpoint and the
// column schema the inventory is written with.
package record

import "strconv"

// Field names. These double as CSV column headers.
const (
	SystemName     = "System_Name"
	H323ID         = "H323ID"
	GateKeeper     = "Gate_Keeper"
	E164           = "E_164"
	SystemMTU      = "System_MTU"
	SNMPStatus     = "SNMP_Status"
	MACAddress     = "MAC_Address"
	HardwareSerial = "Hardware_Serial"
	IPAddress      = "IP_address"
	EthernetLink   = "Ethernet_Link"
	RouterIP       = "Router_IP"
	Model          = "Model"
	LatestSoftware = "Latest_Software"
	SoftwareVer    = "sw_version"
	SwitchHostname = "switch_hostname"
	SwitchPort     = "switchport"
	Provisioned    = "Provisioned"
	Registrar      = "Registrar"
	Registered     = "Registered"
	SIPURI         = "SIP_URI"
	Users          = "Users"
)

// Columns is the declared inventory schema, fixed before a run starts.
var Columns = []string{
	SystemName, H323ID, GateKeeper, E164, SystemMTU, SNMPStatus,
	MACAddress, HardwareSerial, IPAddress, EthernetLink, RouterIP, Model,
	LatestSoftware, SoftwareVer, SwitchHostname, SwitchPort, Provisioned,
	Registrar, Registered, SIPURI, Users,
}

// Record holds the extracted and derived fields of a single endpoint.
// A new Record is built for every endpoint.
type Record struct {
	Address string
	values  map[string]string
}

// New creates an empty record for address.
func New(address string) *Record {
	return &Record{
		Address: address,
		values:  make(map[string]string, len(Columns)),
	}
}

// Set stores a field value, replacing any previous one.
func (r *Record) Set(field, value string) {
	r.values[field] = value
}

// SetInt stores an integer field in decimal form.
func (r *Record) SetInt(field string, value int) {
	r.values[field] = strconv.Itoa(value)
}

// Get returns a field value and whether it was set.
func (r *Record) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Value returns a field value, or "" when unset.
func (r *Record) Value(field string) string {
	return r.values[field]
}

// Len returns the number of fields set.
func (r *Record) Len() int {
	return len(r.values)
}

// Row renders the record in the order of columns. Unset fields are empty.
func (r *Record) Row(columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = r.values[c]
	}
	return row
}

// Fields returns a copy of the field map, for JSON output and mirroring.
func (r *Record) Fields() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
