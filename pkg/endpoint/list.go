// Package endpoint reads the list of endpoints to poll.
package endpoint

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/newtron-network/epaudit/pkg/util"
)

// ReadList returns the addresses in path, one per line, in file order.
// Trailing whitespace is stripped; blank lines and lines starting with '#'
// are skipped.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrEndpointList, err)
	}
	defer f.Close()

	var addresses []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		addresses = append(addresses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", util.ErrEndpointList, path, err)
	}
	return addresses, nil
}
