// SPDX-License-Identifier: MPL-2.0

package component

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/scd-tools/scd/internal/storefs"
)

// config.php is generated, so a line pattern is enough:
//
//	'Magento_Store' => 1,
var moduleStatusLine = regexp.MustCompile(`^\s*'(\w+)'\s*=>\s*(\d)`)

// EnabledModules returns the modules switched on in app/etc/config.php, in
// the order the file lists them.
func EnabledModules(fsys fs.FS) ([]ModuleID, error) {
	data, err := fs.ReadFile(fsys, storefs.ConfigPHP)
	if err != nil {
		return nil, fmt.Errorf("read enabled modules from %s: %w", storefs.ConfigPHP, err)
	}

	var (
		enabled []ModuleID
		seen    = make(map[ModuleID]bool)
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := moduleStatusLine.FindStringSubmatch(scanner.Text())
		if m == nil || m[2] == "0" {
			continue
		}
		id := ModuleID(m[1])
		if !seen[id] {
			seen[id] = true
			enabled = append(enabled, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read enabled modules from %s: %w", storefs.ConfigPHP, err)
	}
	return enabled, nil
}
