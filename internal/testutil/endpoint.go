// Package testutil provides test helpers shared by package tests.
package testutil

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Default credentials accepted by a FakeEndpoint.
const (
	Username = "admin"
	Password = "secret"
)

// FakeEndpoint is an in-process HTTPS endpoint serving the XML management
// API. It holds MTU and SNMP mode as mutable state so compliance writes
// are reflected by later configuration reads.
type FakeEndpoint struct {
	Server *httptest.Server

	mu           sync.Mutex
	mtu          string
	snmpMode     string
	users        int
	ignoreWrites bool
	failOn       map[string]int
	requests     []string
	writes       []string
}

// NewFakeEndpoint starts a TLS endpoint reporting the given MTU and SNMP
// mode. It is closed when the test ends.
func NewFakeEndpoint(t *testing.T, mtu, snmpMode string) *FakeEndpoint {
	t.Helper()

	f := &FakeEndpoint{
		mtu:      mtu,
		snmpMode: snmpMode,
		users:    2,
		failOn:   make(map[string]int),
	}
	f.Server = httptest.NewTLSServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Address is the host:port the endpoint listens on.
func (f *FakeEndpoint) Address() string {
	return f.Server.Listener.Addr().String()
}

// FailOn makes requests of kind ("configuration", "status", "command" or
// "write") answer with status.
func (f *FakeEndpoint) FailOn(kind string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[kind] = status
}

// IgnoreWrites makes the endpoint acknowledge configuration writes without
// applying them.
func (f *FakeEndpoint) IgnoreWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignoreWrites = true
}

// SetUsers sets the number of accounts in the user list response.
func (f *FakeEndpoint) SetUsers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = n
}

// Requests returns the request kinds served, in order.
func (f *FakeEndpoint) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Writes returns the configuration documents received, in order.
func (f *FakeEndpoint) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

// Count returns how many requests of kind were served.
func (f *FakeEndpoint) Count(kind string) int {
	n := 0
	for _, r := range f.Requests() {
		if r == kind {
			n++
		}
	}
	return n
}

// Values returns the current MTU and SNMP mode.
func (f *FakeEndpoint) Values() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mtu, f.snmpMode
}

func (f *FakeEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != Username || pass != Password {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Header.Get("Content-Type") != "text/xml" {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		return
	}

	kind := ""
	var body []byte
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/getxml":
		switch r.URL.Query().Get("location") {
		case "/Configuration":
			kind = "configuration"
		case "/Status":
			kind = "status"
		}
	case r.Method == http.MethodPost && r.URL.Path == "/putxml":
		body, _ = io.ReadAll(r.Body)
		if strings.HasPrefix(string(body), "<Command>") {
			kind = "command"
		} else {
			kind = "write"
		}
	}
	if kind == "" {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, kind)
	if status, ok := f.failOn[kind]; ok {
		http.Error(w, "injected failure", status)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	switch kind {
	case "configuration":
		io.WriteString(w, ConfigurationXML(f.mtu, f.snmpMode))
	case "status":
		io.WriteString(w, StatusXML())
	case "command":
		io.WriteString(w, UserListXML(f.users))
	case "write":
		f.writes = append(f.writes, string(body))
		if !f.ignoreWrites {
			f.applyWrite(body)
		}
		io.WriteString(w, `<?xml version="1.0"?><Configuration><Success/></Configuration>`)
	}
}

func (f *FakeEndpoint) applyWrite(body []byte) {
	var doc struct {
		Network struct {
			MTU *string `xml:"MTU"`
		} `xml:"Network"`
		NetworkServices struct {
			SNMP struct {
				Mode *string `xml:"Mode"`
			} `xml:"SNMP"`
		} `xml:"NetworkServices"`
	}
	if err := xml.Unmarshal(body, &doc); err != nil {
		return
	}
	if doc.Network.MTU != nil {
		f.mtu = *doc.Network.MTU
	}
	if doc.NetworkServices.SNMP.Mode != nil {
		f.snmpMode = *doc.NetworkServices.SNMP.Mode
	}
}

// ConfigurationXML renders a configuration tree.
func ConfigurationXML(mtu, snmpMode string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<Configuration product="Cisco Codec" version="ce9.15.3.17" apiVersion="4">
  <H323>
    <Gatekeeper>
      <Address>gk.example.net</Address>
    </Gatekeeper>
    <H323Alias>
      <E164>5551234</E164>
      <ID>boardroom-1@example.net</ID>
    </H323Alias>
  </H323>
  <Network item="1" maxOccurrence="1">
    <MTU valueSpaceRef="/Valuespace/INT_576_1500">%s</MTU>
  </Network>
  <NetworkServices>
    <SNMP>
      <Mode valueSpaceRef="/Valuespace/TTPAR_SNMPMode">%s</Mode>
    </SNMP>
  </NetworkServices>
  <SystemUnit>
    <Name>boardroom-1</Name>
  </SystemUnit>
</Configuration>
`, mtu, snmpMode)
}

// StatusXML renders a status tree.
func StatusXML() string {
	return `<?xml version="1.0"?>
<Status product="Cisco Codec" version="ce9.15.3.17" apiVersion="4">
  <Network item="1" maxOccurrence="1">
    <CDP>
      <DeviceId>sw-core-1.example.net</DeviceId>
      <PortID>GigabitEthernet1/0/7</PortID>
    </CDP>
    <Ethernet>
      <MacAddress>00:50:60:AA:BB:CC</MacAddress>
      <Speed>1000full</Speed>
    </Ethernet>
    <IPv4>
      <Address>10.0.0.5</Address>
      <Gateway>10.0.0.1</Gateway>
    </IPv4>
  </Network>
  <Provisioning>
    <Status>Provisioned</Status>
  </Provisioning>
  <SIP>
    <Proxy item="1" maxOccurrence="n">
      <Address>cucm.example.net</Address>
    </Proxy>
    <Registration item="1" maxOccurrence="n">
      <Status>Registered</Status>
      <URI>boardroom-1@example.net</URI>
    </Registration>
  </SIP>
  <SystemUnit>
    <Hardware>
      <Module>
        <SerialNumber>FOC1234X5YZ</SerialNumber>
      </Module>
    </Hardware>
    <ProductId>Cisco Webex Room Kit</ProductId>
    <Software>
      <Version>ce9.15.3.17</Version>
    </Software>
  </SystemUnit>
</Status>
`
}

// UserListXML renders a user list command response with n accounts.
func UserListXML(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>` + "\n" + `<Command><UserListResult status="OK">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<User item="%d"><Username>user%d</Username><Active>True</Active></User>`, i, i)
	}
	b.WriteString(`</UserListResult></Command>`)
	return b.String()
}

// UnreachableAddress returns a loopback address with nothing listening.
func UnreachableAddress(t *testing.T) string {
	t.Helper()
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()
	return addr
}
