// Package extract reads an endpoint's raw XML responses into a Device Record.
package extract

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/newtron-network/epaudit/pkg/record"
	"github.com/newtron-network/epaudit/pkg/util"
	"github.com/newtron-network/epaudit/pkg/xapi"
)

// Path maps a record field to an element path relative to the document root.
type Path struct {
	Field string
	XPath string
}

// Configuration tree lookups.
var ConfigPaths = []Path{
	{record.SystemName, "./SystemUnit/Name"},
	{record.H323ID, "./H323/H323Alias/ID"},
	{record.GateKeeper, "./H323/Gatekeeper/Address"},
	{record.E164, "./H323/H323Alias/E164"},
	{record.SystemMTU, "./Network/MTU"},
	{record.SNMPStatus, "./NetworkServices/SNMP/Mode"},
}

// Status tree lookups.
var StatusPaths = []Path{
	{record.MACAddress, "./Network/Ethernet/MacAddress"},
	{record.HardwareSerial, "./SystemUnit/Hardware/Module/SerialNumber"},
	{record.IPAddress, "./Network/IPv4/Address"},
	{record.EthernetLink, "./Network/Ethernet/Speed"},
	{record.RouterIP, ".//Network/IPv4/Gateway"},
	{record.Model, "./SystemUnit/ProductId"},
	{record.SoftwareVer, "./SystemUnit/Software/Version"},
	{record.SwitchHostname, "./Network/CDP/DeviceId"},
	{record.SwitchPort, "./Network/CDP/PortID"},
	{record.Provisioned, "./Provisioning/Status"},
	{record.Registrar, "./SIP/Proxy/Address"},
	{record.Registered, "./SIP/Registration/Status"},
	{record.SIPURI, "./SIP/Registration/URI"},
}

// UserListPath is the command response node whose children are counted.
const UserListPath = "./UserListResult"

// FieldError reports a path that resolved to nothing.
type FieldError struct {
	File  string
	Field string
	XPath string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %s not found at %s", e.File, e.Field, e.XPath)
}

func (e *FieldError) Unwrap() error {
	return util.ErrFieldNotFound
}

// Extractor populates records from fetched artifacts.
type Extractor struct {
	// LatestSoftware is written to every record as a static annotation. It
	// is not read from the endpoint.
	LatestSoftware string
}

// Extract parses the three artifacts into rec. The artifacts are removed
// before Extract returns, whether or not parsing succeeded. On error rec may
// hold the fields parsed before the failure.
func (x *Extractor) Extract(a *xapi.Artifacts, rec *record.Record) (err error) {
	defer func() {
		if rmErr := a.Remove(); rmErr != nil {
			util.WithEndpoint(a.Address).Warnf("removing artifacts: %v", rmErr)
		}
	}()

	config, err := readRoot(a.Config)
	if err != nil {
		return err
	}
	status, err := readRoot(a.Status)
	if err != nil {
		return err
	}
	command, err := readRoot(a.Command)
	if err != nil {
		return err
	}

	if err := lookup(a.Config, config, ConfigPaths, rec); err != nil {
		return err
	}
	if err := lookup(a.Status, status, StatusPaths, rec); err != nil {
		return err
	}
	rec.Set(record.LatestSoftware, x.LatestSoftware)

	users := command.FindElement(UserListPath)
	if users == nil {
		return &FieldError{File: a.Command, Field: record.Users, XPath: UserListPath}
	}
	rec.SetInt(record.Users, len(users.ChildElements()))

	return nil
}

// ConfigValue parses a configuration file and returns the text at xpath.
func ConfigValue(path, field, xpath string) (string, error) {
	root, err := readRoot(path)
	if err != nil {
		return "", err
	}
	el := root.FindElement(xpath)
	if el == nil {
		return "", &FieldError{File: path, Field: field, XPath: xpath}
	}
	return el.Text(), nil
}

func readRoot(path string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: no root element", path)
	}
	return root, nil
}

func lookup(file string, root *etree.Element, paths []Path, rec *record.Record) error {
	for _, p := range paths {
		el := root.FindElement(p.XPath)
		if el == nil {
			return &FieldError{File: file, Field: p.Field, XPath: p.XPath}
		}
		rec.Set(p.Field, el.Text())
	}
	return nil
}
